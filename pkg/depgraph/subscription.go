// SPDX-License-Identifier: MPL-2.0

package depgraph

import "maps"

// SubscriptionRest delivers events by calling an HTTP endpoint on the subscriber.
const SubscriptionRest SubscriptionKind = "rest"

type (
	// SubscriptionKind tags the delivery variant of a subscription.
	SubscriptionKind string

	// SubscriptionOptions describes how a subscriber wants an event delivered.
	// Only EventName and Publisher take part in edge derivation; the delivery
	// fields are passed through to renderers untouched.
	SubscriptionOptions struct {
		Kind      SubscriptionKind  `json:"kind" yaml:"kind" toml:"kind"`
		EventName string            `json:"event_name" yaml:"event_name" toml:"event_name"`
		// Publisher restricts publisher lookup to services with this name. Optional.
		Publisher string            `json:"publisher,omitempty" yaml:"publisher,omitempty" toml:"publisher,omitempty"`
		Rest      *RestSubscription `json:"rest,omitempty" yaml:"rest,omitempty" toml:"rest,omitempty"`
	}

	// RestSubscription is the payload of a SubscriptionRest subscription.
	RestSubscription struct {
		URI     string            `json:"uri" yaml:"uri" toml:"uri"`
		Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty" toml:"headers,omitempty"`
	}
)

// String returns the kind name.
func (k SubscriptionKind) String() string { return string(k) }

// NewRestSubscription builds REST subscription options for event.
func NewRestSubscription(event, uri string, headers map[string]string) SubscriptionOptions {
	return SubscriptionOptions{
		Kind:      SubscriptionRest,
		EventName: event,
		Rest:      &RestSubscription{URI: uri, Headers: maps.Clone(headers)},
	}
}

// Clone returns a deep copy of s.
func (s SubscriptionOptions) Clone() SubscriptionOptions {
	if s.Rest != nil {
		rest := *s.Rest
		rest.Headers = maps.Clone(s.Rest.Headers)
		s.Rest = &rest
	}
	return s
}
