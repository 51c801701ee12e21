package deontic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthfulActionIsCompliant(t *testing.T) {
	e := New()
	res := e.CheckCompliance("I will tell the truth to help someone make an informed decision", nil)
	assert.True(t, res["compliant"].(bool))
	assert.Equal(t, 0.8, res["confidence"].(float64))
	assert.Equal(t, "no_violation", res["rule_applied"].(string))
}

func TestLyingToCustomersViolatesLieDuty(t *testing.T) {
	e := New()
	res := e.CheckCompliance("I will lie to customers about our product's capabilities", nil)
	assert.False(t, res["compliant"].(bool))
	assert.Equal(t, "do_not_lie", res["rule_applied"].(string))
	violations := res["violations"].([]violation)
	assert.NotEmpty(t, violations)
	assert.Equal(t, "do_not_lie", violations[0].RuleId)
}

func TestEmptyInputFailsClosed(t *testing.T) {
	e := New()
	res := e.CheckCompliance("", nil)
	assert.False(t, res["compliant"].(bool))
	assert.Equal(t, 0.0, res["confidence"].(float64))
	assert.Equal(t, "input_validation", res["rule_applied"].(string))
}

func TestConfidenceCappedAtPointNine(t *testing.T) {
	e := New()
	res := e.CheckCompliance("I will lie to everyone, deceive my customers, fabricate false statements and cover up the harm I cause to them", nil)
	assert.False(t, res["compliant"].(bool))
	assert.LessOrEqual(t, res["confidence"].(float64), 0.9)
}

func TestUniversalizabilityFlagsSelfException(t *testing.T) {
	e := New()
	res := e.CheckUniversalizability("Everyone must follow the rules, except myself")
	assert.False(t, res["universalizable"].(bool))

	res = e.CheckUniversalizability("Everyone should keep their promises")
	assert.True(t, res["universalizable"].(bool))
}

func TestComplianceWindowIsBounded(t *testing.T) {
	e := New()
	for i := 0; i < e.windowCap+25; i++ {
		e.CheckCompliance("a harmless everyday action", nil)
	}
	stats := e.ComplianceStats()
	assert.Equal(t, e.windowCap, stats["window_size"].(int))
	assert.Equal(t, 1.0, stats["compliance_rate"].(float64))
}

func TestApplicableRulesCatalogue(t *testing.T) {
	e := New()
	rules := e.ApplicableRules()
	assert.Len(t, rules, 5)
	ids := map[string]bool{}
	for _, r := range rules {
		ids[r.Id] = true
		assert.Equal(t, "deontological", r.Category)
	}
	for _, want := range []string{"do_not_lie", "keep_promises", "respect_autonomy", "do_not_steal", "do_not_harm"} {
		assert.True(t, ids[want], "missing duty %s", want)
	}
}

func TestDispatchThroughRegistry(t *testing.T) {
	e := New()
	res, err := e.Invoke("CheckCompliance", map[string]interface{}{
		"action_description": "I will steal money from the cash register",
	})
	assert.NoError(t, err)
	m := res.(map[string]interface{})
	assert.False(t, m["compliant"].(bool))
	assert.Equal(t, "do_not_steal", m["rule_applied"].(string))

	_, err = e.Invoke("NotAMethod", nil)
	assert.Error(t, err)
}
