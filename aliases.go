package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AliasSet holds the header names accepted for each canonical column. Every
// list is matched case-insensitively. Sites with unusual export layouts can
// override individual lists from a YAML file (see LoadAliases).
type AliasSet struct {
	Timestamp       []string `yaml:"timestamp"`
	Tag             []string `yaml:"tag"`
	Journal         []string `yaml:"journal"`
	Priority        []string `yaml:"priority"`
	Unit            []string `yaml:"unit"`
	AlarmState      []string `yaml:"alarm_state"`
	ActionParameter []string `yaml:"action_parameter"`
	Descriptive     []string `yaml:"descriptive"`
}

// descriptiveFragments are matched by containment: any unmapped header whose
// name contains one of these lands in the descriptive bucket.
var descriptiveFragments = []string{"desc", "message", "comment"}

func DefaultAliases() AliasSet {
	return AliasSet{
		Timestamp:       []string{"timestamp", "time", "datetime", "date", "event time", "eventtime", "time stamp", "occurrence time"},
		Tag:             []string{"tag", "tagname", "tag name", "point", "point name", "source", "item", "object"},
		Journal:         []string{"journal", "type", "event type", "record type", "category", "class", "record"},
		Priority:        []string{"priority", "prio", "severity", "level"},
		Unit:            []string{"unit", "area", "plant", "module", "location", "plant area"},
		AlarmState:      []string{"alarm state", "state", "condition", "alarm type", "subcondition", "alarm identifier"},
		ActionParameter: []string{"parameter", "param", "attribute", "property", "action parameter"},
		Descriptive:     []string{"description", "desc", "message", "comment", "text", "details"},
	}
}

// LoadAliases reads a YAML override file and merges it over the defaults.
// Only lists present in the file replace their default; absent lists keep the
// built-in values.
func LoadAliases(path string) (AliasSet, error) {
	out := DefaultAliases()
	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read aliases: %w", err)
	}
	var file AliasSet
	if err := yaml.Unmarshal(data, &file); err != nil {
		return out, fmt.Errorf("parse aliases yaml: %w", err)
	}
	if len(file.Timestamp) > 0 {
		out.Timestamp = file.Timestamp
	}
	if len(file.Tag) > 0 {
		out.Tag = file.Tag
	}
	if len(file.Journal) > 0 {
		out.Journal = file.Journal
	}
	if len(file.Priority) > 0 {
		out.Priority = file.Priority
	}
	if len(file.Unit) > 0 {
		out.Unit = file.Unit
	}
	if len(file.AlarmState) > 0 {
		out.AlarmState = file.AlarmState
	}
	if len(file.ActionParameter) > 0 {
		out.ActionParameter = file.ActionParameter
	}
	if len(file.Descriptive) > 0 {
		out.Descriptive = file.Descriptive
	}
	return out, nil
}

// ClassificationRules decide whether a journal value marks an alarm record or
// an operator change/action record. Both checks run independently: crafted
// text containing keywords from both lists sets both flags, matching the
// behavior of the exports this was built against.
type ClassificationRules struct {
	AlarmKeywords  []string `yaml:"alarm_keywords"`
	ChangeKeywords []string `yaml:"change_keywords"`
}

func DefaultClassificationRules() ClassificationRules {
	return ClassificationRules{
		AlarmKeywords:  []string{"alarm", "alm"},
		ChangeKeywords: []string{"change", "action", "event"},
	}
}

func (r ClassificationRules) IsAlarm(journal string) bool {
	return containsAnyToken(journal, r.AlarmKeywords)
}

func (r ClassificationRules) IsChange(journal string) bool {
	return containsAnyToken(journal, r.ChangeKeywords)
}

func containsAnyToken(s string, keywords []string) bool {
	s = normalizeToken(s)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, normalizeToken(kw)) {
			return true
		}
	}
	return false
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
