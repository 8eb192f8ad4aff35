package driven

// PromptStore provides access to oracle prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptStructureSystem is the system prompt of the extraction oracle.
	// It has no format placeholders.
	PromptStructureSystem = "structure_system"

	// PromptStructureUser wraps the request. It expects two %s placeholders:
	// the field list and the context text.
	PromptStructureUser = "structure_user"
)
