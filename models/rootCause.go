package models

import (
	"math"
	"regexp"

	"github.com/arrematai/auditor_backend/utils"
)

const (
	RootCauseDataNotLoaded         = "DATA_NOT_LOADED"
	RootCauseSerializationMismatch = "SERIALIZATION_MISMATCH"
	RootCauseStaleCache            = "STALE_CACHE"
	RootCauseStaleClientState      = "STALE_CLIENT_STATE"
	RootCauseCounterNotRevalidated = "COUNTER_NOT_REVALIDATED"
	RootCauseUnknown               = "UNKNOWN"
)

// RootCause is the classifier output attached to a divergence.
type RootCause struct {
	Code           string `json:"code"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// Field naming conventions. "bid$" is anchored so bidsCount stays a counter
// while currentBid/startingBid stay monetary.
var (
	monetaryFieldPattern = regexp.MustCompile(`(?i)(price|amount|value|valor|preco|lance|bid$)`)
	statusFieldPattern   = regexp.MustCompile(`(?i)(status|situacao)`)
	counterFieldPattern  = regexp.MustCompile(`(?i)(count|total|qty|quantidade)`)
)

type rootCauseRule struct {
	name    string
	applies func(fieldName string, dbValue string, uiValue string) bool
	cause   RootCause
}

// Rules are evaluated in order, first match wins. A missing UI value must win
// over the monetary rule: a component that never loaded is a different bug
// class than a stale cached number.
var rootCauseRules = []rootCauseRule{
	{
		name: "missing-ui-value",
		applies: func(fieldName, dbValue, uiValue string) bool {
			return utils.IsPlaceholderText(uiValue)
		},
		cause: RootCause{
			Code:           RootCauseDataNotLoaded,
			Description:    "component failed to load the value — possible timeout or inefficient fan-out query pattern",
			Recommendation: "Check query batching on the page and the component's loading-state handling; a per-row query fan-out usually times out under load.",
		},
	},
	{
		name: "residual-decimals",
		applies: func(fieldName, dbValue, uiValue string) bool {
			d, ok := utils.ParseCurrencyText(uiValue)
			if !ok {
				return false
			}
			return utils.HasResidualDecimals(d)
		},
		cause: RootCause{
			Code:           RootCauseSerializationMismatch,
			Description:    "floating-point artifact in numeric-to-string serialization",
			Recommendation: "Route every monetary render through one canonical formatter; ad-hoc toString on floats leaks residual digits.",
		},
	},
	{
		name: "monetary-divergence",
		applies: func(fieldName, dbValue, uiValue string) bool {
			if !monetaryFieldPattern.MatchString(fieldName) {
				return false
			}
			db := utils.NormalizeDecimal(dbValue)
			ui := utils.NormalizeCurrencyText(uiValue)
			return math.Abs(db-ui) >= MonetaryTolerance
		},
		cause: RootCause{
			Code:           RootCauseStaleCache,
			Description:    "monetary value diverges — likely an invalidated cache or unrevalidated incremental-rendering path",
			Recommendation: "Trigger cache/tag invalidation on every mutation that changes this field; verify the page is not served from a stale incremental render.",
		},
	},
	{
		name: "status-divergence",
		applies: func(fieldName, dbValue, uiValue string) bool {
			return statusFieldPattern.MatchString(fieldName)
		},
		cause: RootCause{
			Code:           RootCauseStaleClientState,
			Description:    "UI status does not reflect current backend state — stale client-side state",
			Recommendation: "Force a client refresh/revalidation after status-changing operations; the page kept state from before the transition.",
		},
	},
	{
		name: "counter-divergence",
		applies: func(fieldName, dbValue, uiValue string) bool {
			return counterFieldPattern.MatchString(fieldName)
		},
		cause: RootCause{
			Code:           RootCauseCounterNotRevalidated,
			Description:    "displayed counter does not match a live recomputation",
			Recommendation: "Recompute the counter from source records instead of trusting the denormalized column, or add an update trigger on the child table.",
		},
	},
}

var rootCauseFallback = RootCause{
	Code:           RootCauseUnknown,
	Description:    "divergence does not match any known systemic pattern",
	Recommendation: "Investigate manually via distributed tracing for this page/field pair.",
}

// InferRootCause classifies a divergence from the field name and both raw
// (pre-normalization) values.
func InferRootCause(fieldName string, dbValue string, uiValue string) RootCause {
	for _, rule := range rootCauseRules {
		if rule.applies(fieldName, dbValue, uiValue) {
			return rule.cause
		}
	}
	return rootCauseFallback
}

// IsMonetaryField / IsStatusField / IsCounterField expose the naming
// conventions to the report builder for severity defaults.
func IsMonetaryField(fieldName string) bool { return monetaryFieldPattern.MatchString(fieldName) }
func IsStatusField(fieldName string) bool   { return statusFieldPattern.MatchString(fieldName) }
func IsCounterField(fieldName string) bool  { return counterFieldPattern.MatchString(fieldName) }
