package types

import "fmt"

// NoticeType is the severity of a user facing notice
type NoticeType string

const (
	NoticeTypeSuccess NoticeType = "success"
	NoticeTypeError   NoticeType = "error"
	NoticeTypeWarning NoticeType = "warning"
	NoticeTypeInfo    NoticeType = "info"
)

// AllNoticeTypes returns all valid notice types
func AllNoticeTypes() []NoticeType {
	return []NoticeType{
		NoticeTypeSuccess,
		NoticeTypeError,
		NoticeTypeWarning,
		NoticeTypeInfo,
	}
}

// IsValid checks if the notice type is valid
func (n NoticeType) IsValid() bool {
	switch n {
	case NoticeTypeSuccess, NoticeTypeError, NoticeTypeWarning, NoticeTypeInfo:
		return true
	default:
		return false
	}
}

// String returns the string representation of the notice type
func (n NoticeType) String() string {
	return string(n)
}

// ParseNoticeType parses a string into a NoticeType
func ParseNoticeType(s string) (NoticeType, error) {
	n := NoticeType(s)
	if !n.IsValid() {
		return "", fmt.Errorf("invalid notice type: %s", s)
	}
	return n, nil
}
