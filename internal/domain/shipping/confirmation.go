package shipping

import (
	"strings"

	"github.com/orderdesk/backend/internal/domain/shared"
)

// LabelDocument is one document returned by the carrier. Carriers tag documents
// inconsistently, so both the content type and the doc type are kept.
type LabelDocument struct {
	ContentType string
	DocType     string
	URL         string
}

func (d LabelDocument) taggedAs(tag string) bool {
	return strings.EqualFold(d.ContentType, tag) || strings.EqualFold(d.DocType, tag)
}

// CarrierAlert is a non-fatal notice attached to an accepted shipment
type CarrierAlert struct {
	Code      string
	AlertType string
	Message   string
}

// String formats the alert for warning lists
func (a CarrierAlert) String() string {
	var b strings.Builder
	if a.AlertType != "" {
		b.WriteString(a.AlertType)
		b.WriteString(" ")
	}
	if a.Code != "" {
		b.WriteString(a.Code)
		b.WriteString(": ")
	}
	b.WriteString(a.Message)
	return b.String()
}

// ShipmentConfirmation is the carrier's answer to an accepted shipment
type ShipmentConfirmation struct {
	TransactionID        string
	MasterTrackingNumber string
	MasterFormID         string
	Documents            []LabelDocument
	Alerts               []CarrierAlert
}

// ExtractLabelURL picks the label URL: a LABEL-tagged document first, then a
// PDF-tagged one, then the first document with any URL.
func ExtractLabelURL(docs []LabelDocument) (string, bool) {
	for _, tag := range []string{"LABEL", "PDF"} {
		for _, d := range docs {
			if d.URL != "" && d.taggedAs(tag) {
				return d.URL, true
			}
		}
	}
	for _, d := range docs {
		if d.URL != "" {
			return d.URL, true
		}
	}
	return "", false
}

// LabelOutcome is what a successful confirmation yields
type LabelOutcome struct {
	TrackingNumber string
	LabelURL       string
	MasterFormID   string
	Warnings       []string
}

// Resolve extracts the tracking number and label URL. Either one missing is a
// malformed response even though the carrier accepted the shipment.
func (c *ShipmentConfirmation) Resolve() (*LabelOutcome, error) {
	if c == nil {
		return nil, shared.NewMalformedResponseError("carrier returned no shipment output", nil)
	}
	tracking := strings.TrimSpace(c.MasterTrackingNumber)
	if tracking == "" {
		return nil, shared.NewMalformedResponseError("carrier response has no master tracking number", nil)
	}
	url, ok := ExtractLabelURL(c.Documents)
	if !ok {
		return nil, shared.NewMalformedResponseError("carrier response has no label URL", nil).
			WithDetail("trackingNumber", tracking)
	}
	out := &LabelOutcome{
		TrackingNumber: tracking,
		LabelURL:       url,
		MasterFormID:   c.MasterFormID,
	}
	for _, a := range c.Alerts {
		out.Warnings = append(out.Warnings, a.String())
	}
	return out, nil
}
