package rules

// RuleContainer holds one bound rule. Created once by Bind and read-only
// afterwards; discard and rebind when configuration reloads.
type RuleContainer struct {
	Rule Rule
}

// Test evaluates the contained rule against doc.
func (c *RuleContainer) Test(doc any) (bool, error) {
	if c == nil {
		return false, errNilRule
	}
	return Test(c.Rule, doc)
}
