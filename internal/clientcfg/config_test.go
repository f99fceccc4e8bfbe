package clientcfg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverrides(t *testing.T) {
	o, err := ParseOverrides("")
	require.NoError(t, err)
	assert.Nil(t, o, "empty string means no overrides")

	o, err = ParseOverrides(`{"business_domain": "Telecom"}`)
	require.NoError(t, err)
	require.NotNil(t, o)
	require.NotNil(t, o.BusinessDomain)
	assert.Equal(t, "Telecom", *o.BusinessDomain)
	assert.Nil(t, o.RiskTriggers, "absent fields stay nil")

	_, err = ParseOverrides("{not json")
	assert.Error(t, err)
}

func TestMergeNilOverrides(t *testing.T) {
	def := Default()
	merged := Merge(def, nil)

	assert.Equal(t, def, merged)
}

func TestMergeScalarsOverwrite(t *testing.T) {
	domain := "Telecom"
	policySet := "Telecom_v1"

	merged := Merge(Default(), &Overrides{
		BusinessDomain:  &domain,
		ActivePolicySet: &policySet,
	})

	assert.Equal(t, "Telecom", merged.BusinessDomain)
	assert.Equal(t, "Telecom_v1", merged.ActivePolicySet)
	assert.Equal(t, Default().RiskTriggers, merged.RiskTriggers, "untouched fields keep defaults")
}

func TestMergeRiskTriggersUnion(t *testing.T) {
	merged := Merge(Default(), &Overrides{
		RiskTriggers: []string{"Harassment", "Abusive Language"},
	})

	// Defaults first, override additions appended, duplicates dropped
	assert.Equal(t, []string{
		"Legal Threats", "Harassment", "Jail Mention", "Coercion", "Abusive Language",
	}, merged.RiskTriggers)
}

func TestMergeCustomRulesConcatenate(t *testing.T) {
	merged := Merge(Default(), &Overrides{
		CustomRules: []CustomRule{
			{RuleID: "CUSTOM-02", RuleName: "No Weekend Calls", Description: "No calls on weekends."},
		},
	})

	require.Len(t, merged.CustomRules, 2)
	assert.Equal(t, "CUSTOM-01", merged.CustomRules[0].RuleID, "defaults come first")
	assert.Equal(t, "CUSTOM-02", merged.CustomRules[1].RuleID)
}

func TestValidate(t *testing.T) {
	valid := map[string]any{
		"business_domain": "Banking",
		"risk_triggers":   []any{"Threats"},
		"custom_rules": []any{
			map[string]any{"rule_id": "C-1", "rule_name": "Rule", "description": "desc"},
		},
	}
	assert.Empty(t, Validate(valid))

	issues := Validate(map[string]any{
		"business_domain":    42,
		"monitored_products": "not-a-list",
		"risk_triggers":      map[string]any{},
		"custom_rules":       []any{"not-an-object", map[string]any{"rule_name": "missing id"}},
	})

	assert.Contains(t, issues, "'business_domain' must be a string.")
	assert.Contains(t, issues, "'monitored_products' must be an array of strings.")
	assert.Contains(t, issues, "'risk_triggers' must be an array of strings.")
	assert.Contains(t, issues, "'custom_rules[0]' must be an object.")
	assert.Contains(t, issues, "'custom_rules[1]' must have 'rule_id' and 'rule_name'.")
}

func TestConfigJSONShape(t *testing.T) {
	data, err := json.Marshal(Default())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{
		"business_domain", "monitored_products", "active_policy_set", "risk_triggers", "custom_rules",
	} {
		assert.Contains(t, raw, key)
	}
}
