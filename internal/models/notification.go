package models

type NotificationChannel string

const (
	ChannelSMS   NotificationChannel = "sms"
	ChannelEmail NotificationChannel = "email"
)

type DeliveryResult string

const (
	DeliverySuccess DeliveryResult = "success"
	DeliveryFailure DeliveryResult = "failure"
)

// Recipient is an entry of the configured notification roster.
type Recipient struct {
	Name  string `json:"name" mapstructure:"name"`
	Email string `json:"email" mapstructure:"email"`
	Phone string `json:"phone" mapstructure:"phone"`
}

// NotificationOutcome records a single delivery attempt.
type NotificationOutcome struct {
	Channel   NotificationChannel `json:"channel"`
	Recipient string              `json:"recipient"`
	Result    DeliveryResult      `json:"result"`
	Code      string              `json:"code,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// FailureDetail describes one failed delivery in a channel summary.
type FailureDetail struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
}

type ChannelSummary struct {
	Success int             `json:"success"`
	Failed  int             `json:"failed"`
	Errors  []FailureDetail `json:"errors"`
}

// NotificationResults aggregates every attempt made for one dispatch.
type NotificationResults struct {
	SMS      ChannelSummary        `json:"sms"`
	Email    ChannelSummary        `json:"email"`
	Outcomes []NotificationOutcome `json:"-"`
}

// Record adds an outcome to the matching channel summary.
func (r *NotificationResults) Record(o NotificationOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	summary := r.summary(o.Channel)
	if summary == nil {
		return
	}
	if o.Result == DeliverySuccess {
		summary.Success++
		return
	}
	summary.Failed++
	summary.Errors = append(summary.Errors, FailureDetail{
		Recipient: o.Recipient,
		Error:     o.Error,
		Code:      o.Code,
	})
}

func (r *NotificationResults) summary(ch NotificationChannel) *ChannelSummary {
	switch ch {
	case ChannelSMS:
		return &r.SMS
	case ChannelEmail:
		return &r.Email
	}
	return nil
}

// NewNotificationResults returns results with empty, non-nil error lists so
// they encode as [] rather than null.
func NewNotificationResults() NotificationResults {
	return NotificationResults{
		SMS:   ChannelSummary{Errors: []FailureDetail{}},
		Email: ChannelSummary{Errors: []FailureDetail{}},
	}
}

// ChannelCheck is the result of probing a channel with a test message.
type ChannelCheck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
