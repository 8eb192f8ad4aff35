package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)

	for _, v := range []string{"dev", "1.4.0"} {
		t.Run(v, func(t *testing.T) {
			original := version
			SetVersion(v)
			defer func() { version = original }()

			out, err := run(t, "version")
			assert.NoError(t, err)
			assert.Contains(t, out, "licita version "+v)
		})
	}
}
