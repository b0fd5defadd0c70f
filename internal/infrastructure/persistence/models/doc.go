// Package models contains the GORM persistence models. Domain entities carry
// no ORM tags; each model converts with ToDomain and FromDomain.
//
//   - base.go: shared id and timestamp columns
//   - order.go: orders and order_items
//   - credential.go: carrier_credentials, marketplace_credentials, shipper_profiles
package models
