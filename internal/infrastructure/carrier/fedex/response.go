package fedex

import (
	"github.com/orderdesk/backend/internal/domain/shipping"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// errorResponse is the error envelope shared by the OAuth and Ship APIs
type errorResponse struct {
	TransactionID string     `json:"transactionId"`
	Errors        []apiError `json:"errors"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// first returns the leading error code and message, if any
func (e errorResponse) first() (string, string) {
	if len(e.Errors) == 0 {
		return "", ""
	}
	return e.Errors[0].Code, e.Errors[0].Message
}

type shipResponse struct {
	TransactionID string      `json:"transactionId"`
	Output        *shipOutput `json:"output"`
}

type shipOutput struct {
	TransactionShipments []transactionShipment `json:"transactionShipments"`
	Alerts               []alert               `json:"alerts,omitempty"`
}

type transactionShipment struct {
	MasterTrackingNumber    string                   `json:"masterTrackingNumber"`
	ServiceType             string                   `json:"serviceType"`
	ShipDatestamp           string                   `json:"shipDatestamp"`
	PieceResponses          []pieceResponse          `json:"pieceResponses"`
	ShipmentDocuments       []document               `json:"shipmentDocuments,omitempty"`
	CompletedShipmentDetail *completedShipmentDetail `json:"completedShipmentDetail,omitempty"`
	Alerts                  []alert                  `json:"alerts,omitempty"`
}

type pieceResponse struct {
	TrackingNumber       string     `json:"trackingNumber"`
	MasterTrackingNumber string     `json:"masterTrackingNumber"`
	PackageDocuments     []document `json:"packageDocuments"`
}

type document struct {
	URL           string `json:"url"`
	ContentType   string `json:"contentType"`
	DocType       string `json:"docType"`
	CopiesToPrint int    `json:"copiesToPrint,omitempty"`
}

type completedShipmentDetail struct {
	MasterTrackingID *masterTrackingID `json:"masterTrackingId,omitempty"`
}

type masterTrackingID struct {
	TrackingIDType string `json:"trackingIdType"`
	FormID         string `json:"formId"`
	TrackingNumber string `json:"trackingNumber"`
}

type alert struct {
	Code      string `json:"code"`
	AlertType string `json:"alertType"`
	Message   string `json:"message"`
}

// toConfirmation flattens the first transaction shipment into the domain shape.
// A response without any shipment yields nil.
func (r *shipResponse) toConfirmation() *shipping.ShipmentConfirmation {
	if r.Output == nil || len(r.Output.TransactionShipments) == 0 {
		return nil
	}
	ts := r.Output.TransactionShipments[0]
	conf := &shipping.ShipmentConfirmation{
		TransactionID:        r.TransactionID,
		MasterTrackingNumber: ts.MasterTrackingNumber,
	}
	if d := ts.CompletedShipmentDetail; d != nil && d.MasterTrackingID != nil {
		conf.MasterFormID = d.MasterTrackingID.FormID
		if conf.MasterTrackingNumber == "" {
			conf.MasterTrackingNumber = d.MasterTrackingID.TrackingNumber
		}
	}

	for _, p := range ts.PieceResponses {
		if conf.MasterTrackingNumber == "" {
			conf.MasterTrackingNumber = firstNonBlank(p.MasterTrackingNumber, p.TrackingNumber)
		}
		for _, d := range p.PackageDocuments {
			conf.Documents = append(conf.Documents, toLabelDocument(d))
		}
	}
	for _, d := range ts.ShipmentDocuments {
		conf.Documents = append(conf.Documents, toLabelDocument(d))
	}

	for _, a := range append(r.Output.Alerts, ts.Alerts...) {
		conf.Alerts = append(conf.Alerts, shipping.CarrierAlert{Code: a.Code, AlertType: a.AlertType, Message: a.Message})
	}
	return conf
}

func toLabelDocument(d document) shipping.LabelDocument {
	return shipping.LabelDocument{ContentType: d.ContentType, DocType: d.DocType, URL: d.URL}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
