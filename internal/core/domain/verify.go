package domain

// verify demotes f when it claims a value its evidence cannot back.
func verify[T any](f *Finding[T], ok func(Evidence) bool) int {
	if !f.Found {
		return 0
	}
	if f.Evidence.IsNoData() || f.Evidence.LiteralExcerpt == "" || !ok(f.Evidence) {
		*f = NotFound[T](f.Evidence.Field)
		return 1
	}
	return 0
}

func verifyAll(evs []Evidence, ok func(Evidence) bool) ([]Evidence, int) {
	out := make([]Evidence, 0, len(evs))
	for _, ev := range evs {
		if !ok(ev) {
			continue
		}
		out = append(out, ev)
	}
	return out, len(evs) - len(out)
}

// VerifyFindings implements AgentData.
func (d StructureData) VerifyFindings(ok func(Evidence) bool) (AgentData, int) {
	n := 0
	for _, f := range []*Finding[string]{
		&d.ProcessNumber, &d.NoticeNumber, &d.Modality, &d.Agency,
		&d.Object, &d.JudgmentCriterion, &d.SessionDate, &d.EstimatedValue,
	} {
		n += verify(f, ok)
	}
	return d, n
}

// VerifyFindings implements AgentData.
func (d ItemsData) VerifyFindings(ok func(Evidence) bool) (AgentData, int) {
	n := 0
	items := make([]LineItem, len(d.Items))
	for i, it := range d.Items {
		n += verify(&it.Number, ok)
		n += verify(&it.Description, ok)
		n += verify(&it.Unit, ok)
		n += verify(&it.Quantity, ok)
		n += verify(&it.UnitPrice, ok)
		occ := make([]ItemOccurrence, len(it.Occurrences))
		for j, o := range it.Occurrences {
			n += verify(&o.Quantity, ok)
			n += verify(&o.UnitPrice, ok)
			occ[j] = o
		}
		if it.Occurrences != nil {
			it.Occurrences = occ
		}
		items[i] = it
	}
	if d.Items != nil {
		d.Items = items
	}
	return d, n
}

// VerifyFindings implements AgentData.
func (d ComplianceData) VerifyFindings(ok func(Evidence) bool) (AgentData, int) {
	n := 0
	reqs := make([]Requirement, len(d.Requirements))
	for i, r := range d.Requirements {
		n += verify(&r.Clause, ok)
		reqs[i] = r
	}
	if d.Requirements != nil {
		d.Requirements = reqs
	}
	return d, n
}

// VerifyFindings implements AgentData.
func (d TechnicalData) VerifyFindings(ok func(Evidence) bool) (AgentData, int) {
	n := 0
	risks := make([]TechnicalRisk, 0, len(d.Risks))
	for _, r := range d.Risks {
		// A risk exists only through its clause.
		if verify(&r.Clause, ok) > 0 || !r.Clause.Found {
			n++
			continue
		}
		risks = append(risks, r)
	}
	if d.Risks != nil {
		d.Risks = risks
	}
	return d, n
}

// VerifyFindings implements AgentData. A divergence needs two backed values.
func (d DivergenceData) VerifyFindings(ok func(Evidence) bool) (AgentData, int) {
	n := 0
	divs := make([]Divergence, 0, len(d.Divergences))
	for _, div := range d.Divergences {
		values := make([]DivergentValue, 0, len(div.Values))
		for _, v := range div.Values {
			if v.Evidence.IsNoData() || !ok(v.Evidence) {
				n++
				continue
			}
			values = append(values, v)
		}
		if len(values) < 2 {
			continue
		}
		div.Values = values
		divs = append(divs, div)
	}
	if d.Divergences != nil {
		d.Divergences = divs
	}
	return d, n
}

// VerifyFindings implements AgentData.
func (d LegalData) VerifyFindings(ok func(Evidence) bool) (AgentData, int) {
	n := 0
	triggers := make([]LegalTrigger, 0, len(d.Triggers))
	for _, t := range d.Triggers {
		if t.Evidence.IsNoData() || !ok(t.Evidence) {
			n++
			continue
		}
		triggers = append(triggers, t)
	}
	escalations := make([]Escalation, len(d.Escalations))
	for i, e := range d.Escalations {
		var dropped int
		e.Evidence, dropped = verifyAll(e.Evidence, ok)
		n += dropped
		escalations[i] = e
	}
	if d.Triggers != nil {
		d.Triggers = triggers
	}
	if d.Escalations != nil {
		d.Escalations = escalations
	}
	return d, n
}

// VerifyFindings implements AgentData.
func (d DecisionData) VerifyFindings(func(Evidence) bool) (AgentData, int) { return d, 0 }

// VerifyFindings implements AgentData.
func (d ReportData) VerifyFindings(ok func(Evidence) bool) (AgentData, int) {
	n := 0
	answers := make([]QuestionAnswer, len(d.Answers))
	for i, qa := range d.Answers {
		n += verify(&qa.Answer, ok)
		answers[i] = qa
	}
	if d.Answers != nil {
		d.Answers = answers
	}
	return d, n
}

// VerifyFindings implements AgentData.
func (d FailureData) VerifyFindings(func(Evidence) bool) (AgentData, int) { return d, 0 }
