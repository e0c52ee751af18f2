package models

import (
	"fmt"
	"math"

	dErrors "certguard/pkg/domain-errors"
)

// Preset names accepted by PresetConfig.
const (
	PresetDefault = "default"
	PresetStrict  = "strict"
	PresetLenient = "lenient"
)

func days(n int) *int { return &n }

// DefaultConfig returns the stock rule set. Each call returns a fresh value.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		DefaultAction:        ActionWarn,
		AllowOverride:        true,
		RequireAdminApproval: false,
		LogDuplicates:        true,
		Rules: []Rule{
			{
				ID:            "exact_match",
				Name:          "Exact Match Detection",
				Description:   "Detect exact matches on recipient email, name, title, and issuer",
				Enabled:       true,
				Action:        ActionBlock,
				Threshold:     1.0,
				CheckFields:   []Field{FieldRecipientEmail, FieldRecipientName, FieldTitle, FieldIssuerID},
				FuzzyMatching: false,
				Priority:      100,
			},
			{
				ID:             "email_fuzzy",
				Name:           "Email Fuzzy Match",
				Description:    "Detect similar email addresses with typos or variations",
				Enabled:        true,
				Action:         ActionWarn,
				Threshold:      0.85,
				CheckFields:    []Field{FieldRecipientEmail, FieldTitle, FieldIssuerID},
				FuzzyMatching:  true,
				TimeWindowDays: days(30),
				Priority:       80,
			},
			{
				ID:             "name_fuzzy",
				Name:           "Name Fuzzy Match",
				Description:    "Detect similar recipient names with possible typos",
				Enabled:        true,
				Action:         ActionWarn,
				Threshold:      0.8,
				CheckFields:    []Field{FieldRecipientName, FieldTitle, FieldIssuerID},
				FuzzyMatching:  true,
				TimeWindowDays: days(90),
				Priority:       70,
			},
			{
				ID:             "title_fuzzy",
				Name:           "Title Fuzzy Match",
				Description:    "Detect similar certificate titles",
				Enabled:        true,
				Action:         ActionWarn,
				Threshold:      0.75,
				CheckFields:    []Field{FieldRecipientEmail, FieldTitle, FieldIssuerID},
				FuzzyMatching:  true,
				TimeWindowDays: days(60),
				Priority:       60,
			},
			{
				ID:             "same_recipient_different_issuer",
				Name:           "Same Recipient Different Issuer",
				Description:    "Detect when same recipient gets certificates from different issuers",
				Enabled:        true,
				Action:         ActionWarn,
				Threshold:      0.9,
				CheckFields:    []Field{FieldRecipientEmail, FieldRecipientName, FieldTitle},
				FuzzyMatching:  true,
				TimeWindowDays: days(180),
				Priority:       50,
			},
			{
				ID:             "high_frequency_recipient",
				Name:           "High Frequency Recipient",
				Description:    "Detect recipients receiving many certificates in short time",
				Enabled:        true,
				Action:         ActionWarn,
				Threshold:      0.7,
				CheckFields:    []Field{FieldRecipientEmail},
				FuzzyMatching:  false,
				TimeWindowDays: days(7),
				Priority:       40,
			},
		},
	}
}

// StrictConfig blocks on every rule and refuses overrides.
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.DefaultAction = ActionBlock
	cfg.AllowOverride = false
	for i := range cfg.Rules {
		cfg.Rules[i].Action = ActionBlock
		cfg.Rules[i].Threshold = math.Max(cfg.Rules[i].Threshold, 0.8)
	}
	return cfg
}

// LenientConfig downgrades every rule to a warning with relaxed thresholds.
func LenientConfig() Config {
	cfg := DefaultConfig()
	cfg.DefaultAction = ActionAllow
	cfg.AllowOverride = true
	cfg.RequireAdminApproval = false
	for i := range cfg.Rules {
		cfg.Rules[i].Action = ActionWarn
		cfg.Rules[i].Threshold = math.Min(cfg.Rules[i].Threshold, 0.6)
	}
	return cfg
}

// PresetConfig resolves a preset by name.
func PresetConfig(name string) (Config, error) {
	switch name {
	case PresetDefault, "":
		return DefaultConfig(), nil
	case PresetStrict:
		return StrictConfig(), nil
	case PresetLenient:
		return LenientConfig(), nil
	default:
		return Config{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown preset %q", name))
	}
}
