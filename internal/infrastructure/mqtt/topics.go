package mqtt

import "fmt"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "tskpay"

// Topics provides builders for change-feed topics.
//
//	topics := mqtt.Topics{Prefix: "tskpay"}
//	topics.Changes("members") // "tskpay/changes/members"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: tskpay/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix())
}

// Changes returns the topic for record changes in one table.
//
// Example: tskpay/changes/payments
func (t Topics) Changes(table string) string {
	return fmt.Sprintf("%s/changes/%s", t.prefix(), table)
}

// AllChanges returns the wildcard subscription for every table.
//
// Example: tskpay/changes/+
func (t Topics) AllChanges() string {
	return fmt.Sprintf("%s/changes/+", t.prefix())
}
