package models

import "fmt"

// InvolvementAction describes how a software component participated in
// producing a document.
type InvolvementAction string

const (
	ActionClassified InvolvementAction = "Classified"
	ActionDated      InvolvementAction = "Dated"
	ActionProcessed  InvolvementAction = "Processed"
	ActionExtracted  InvolvementAction = "Extracted"
	ActionOther      InvolvementAction = "Other"
)

// ParseInvolvementAction validates an action string.
func ParseInvolvementAction(s string) (InvolvementAction, error) {
	switch InvolvementAction(s) {
	case ActionClassified, ActionDated, ActionProcessed, ActionExtracted, ActionOther:
		return InvolvementAction(s), nil
	}
	return "", fmt.Errorf("invalid involvement action %q", s)
}

// SoftwareVersion is an interned component version string.
type SoftwareVersion struct {
	ID      int64  `json:"id"`
	Version string `json:"version"`
}

// SoftwareInvolvementRecord attaches a component version to a document.
type SoftwareInvolvementRecord struct {
	SoftwareID int64             `json:"software_id"`
	DocumentID int64             `json:"document_id"`
	Action     InvolvementAction `json:"action"`
}
