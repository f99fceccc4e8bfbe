package clientcfg

import (
	"encoding/json"
	"fmt"
)

// CustomRule is one client-specific policy rule beyond the standard corpus
type CustomRule struct {
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	Description string `json:"description"`
}

// Config is the effective client configuration applied to one request
type Config struct {
	BusinessDomain    string       `json:"business_domain"`
	MonitoredProducts []string     `json:"monitored_products"`
	ActivePolicySet   string       `json:"active_policy_set"`
	RiskTriggers      []string     `json:"risk_triggers"`
	CustomRules       []CustomRule `json:"custom_rules"`
}

// Overrides is a partial client configuration supplied with a request.
// Pointer scalar fields distinguish "absent" from "set to empty".
type Overrides struct {
	BusinessDomain    *string      `json:"business_domain"`
	MonitoredProducts []string     `json:"monitored_products"`
	ActivePolicySet   *string      `json:"active_policy_set"`
	RiskTriggers      []string     `json:"risk_triggers"`
	CustomRules       []CustomRule `json:"custom_rules"`
}

// Default returns the built-in client configuration used when a request
// supplies no overrides.
func Default() Config {
	return Config{
		BusinessDomain: "Banking / Debt Recovery",
		MonitoredProducts: []string{
			"Credit Card",
			"Personal Loan",
			"Home Loan",
		},
		ActivePolicySet: "RBI_Compliance_v2.1",
		RiskTriggers: []string{
			"Legal Threats",
			"Harassment",
			"Jail Mention",
			"Coercion",
		},
		CustomRules: []CustomRule{
			{
				RuleID:      "CUSTOM-01",
				RuleName:    "No Script Deviation",
				Description: "Agent must follow the approved call script at all times.",
			},
		},
	}
}

// ParseOverrides parses a client_config JSON string into Overrides.
// An empty string yields nil overrides.
func ParseOverrides(raw string) (*Overrides, error) {
	if raw == "" {
		return nil, nil
	}

	var o Overrides
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("invalid client_config JSON: %w", err)
	}

	return &o, nil
}

// Merge applies overrides onto the default configuration: scalar fields
// overwrite, risk_triggers union (defaults first, duplicates dropped), and
// custom_rules concatenate with the defaults first.
func Merge(def Config, o *Overrides) Config {
	merged := def

	if o == nil {
		return merged
	}

	if o.BusinessDomain != nil {
		merged.BusinessDomain = *o.BusinessDomain
	}

	if o.MonitoredProducts != nil {
		merged.MonitoredProducts = o.MonitoredProducts
	}

	if o.ActivePolicySet != nil {
		merged.ActivePolicySet = *o.ActivePolicySet
	}

	if o.RiskTriggers != nil {
		seen := make(map[string]struct{}, len(def.RiskTriggers))
		triggers := make([]string, 0, len(def.RiskTriggers)+len(o.RiskTriggers))
		for _, t := range def.RiskTriggers {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			triggers = append(triggers, t)
		}
		for _, t := range o.RiskTriggers {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			triggers = append(triggers, t)
		}
		merged.RiskTriggers = triggers
	}

	if o.CustomRules != nil {
		rules := make([]CustomRule, 0, len(def.CustomRules)+len(o.CustomRules))
		rules = append(rules, def.CustomRules...)
		rules = append(rules, o.CustomRules...)
		merged.CustomRules = rules
	}

	return merged
}

// Validate type-checks a raw client configuration document and returns a list
// of issues. An empty issue list means the document is acceptable.
func Validate(raw map[string]any) []string {
	var issues []string

	if v, ok := raw["business_domain"]; ok {
		if _, ok := v.(string); !ok {
			issues = append(issues, "'business_domain' must be a string.")
		}
	}

	if v, ok := raw["monitored_products"]; ok {
		if _, ok := v.([]any); !ok {
			issues = append(issues, "'monitored_products' must be an array of strings.")
		}
	}

	if v, ok := raw["risk_triggers"]; ok {
		if _, ok := v.([]any); !ok {
			issues = append(issues, "'risk_triggers' must be an array of strings.")
		}
	}

	if v, ok := raw["custom_rules"]; ok {
		rules, ok := v.([]any)
		if !ok {
			issues = append(issues, "'custom_rules' must be an array of objects.")
		} else {
			for i, r := range rules {
				rule, ok := r.(map[string]any)
				if !ok {
					issues = append(issues, fmt.Sprintf("'custom_rules[%d]' must be an object.", i))
					continue
				}
				if _, hasID := rule["rule_id"]; !hasID {
					issues = append(issues, fmt.Sprintf("'custom_rules[%d]' must have 'rule_id' and 'rule_name'.", i))
					continue
				}
				if _, hasName := rule["rule_name"]; !hasName {
					issues = append(issues, fmt.Sprintf("'custom_rules[%d]' must have 'rule_id' and 'rule_name'.", i))
				}
			}
		}
	}

	return issues
}
