package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ipagency/backend/internal/domain/finance"
)

// ReceivedPaymentModel is the persistence model for the ReceivedPayment
// aggregate root. Receipts are soft-deleted by the surrounding CRUD layer;
// the gorm.DeletedAt field keeps deleted rows out of every query here, so a
// removed receipt can no longer accept write-offs.
type ReceivedPaymentModel struct {
	AggregateModel
	DeletedAt       gorm.DeletedAt        `gorm:"index"`
	ReceiptNo       string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_received_payments_no"`
	CustomerID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	ContractID      *uuid.UUID            `gorm:"type:uuid;index"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	ClaimedAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	UnclaimedAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null;index"`
	Status          finance.ReceiptStatus `gorm:"type:smallint;not null;index"`
	ReceivedAt      time.Time             `gorm:"not null;index"`
	Remark          string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReceivedPaymentModel) TableName() string {
	return "received_payments"
}

// ToDomain converts the persistence model to a domain ReceivedPayment entity.
func (m *ReceivedPaymentModel) ToDomain() *finance.ReceivedPayment {
	p := &finance.ReceivedPayment{
		ReceiptNo:       m.ReceiptNo,
		CustomerID:      m.CustomerID,
		ContractID:      m.ContractID,
		Amount:          m.Amount,
		ClaimedAmount:   m.ClaimedAmount,
		UnclaimedAmount: m.UnclaimedAmount,
		Status:          m.Status,
		ReceivedAt:      m.ReceivedAt,
		Remark:          m.Remark,
	}
	p.BaseEntity = m.BaseModel.ToDomain()
	p.Version = m.Version
	return p
}

// FromDomain populates the persistence model from a domain ReceivedPayment entity.
func (m *ReceivedPaymentModel) FromDomain(p *finance.ReceivedPayment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ReceiptNo = p.ReceiptNo
	m.CustomerID = p.CustomerID
	m.ContractID = p.ContractID
	m.Amount = p.Amount
	m.ClaimedAmount = p.ClaimedAmount
	m.UnclaimedAmount = p.UnclaimedAmount
	m.Status = p.Status
	m.ReceivedAt = p.ReceivedAt
	m.Remark = p.Remark
}

// ReceivedPaymentModelFromDomain creates a new persistence model from a domain ReceivedPayment.
func ReceivedPaymentModelFromDomain(p *finance.ReceivedPayment) *ReceivedPaymentModel {
	m := &ReceivedPaymentModel{}
	m.FromDomain(p)
	return m
}

// WriteOffModel is the persistence model for the WriteOff aggregate root.
// Rows are append-only: a revert flips the status, it never deletes.
type WriteOffModel struct {
	AggregateModel
	WriteOffNo        string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_write_offs_no"`
	PaymentReceivedID uuid.UUID              `gorm:"type:uuid;not null;index"`
	PaymentRequestID  *uuid.UUID             `gorm:"type:uuid;index"`
	CustomerID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	ContractID        *uuid.UUID             `gorm:"type:uuid;index"`
	Amount            decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	WriteOffDate      time.Time              `gorm:"not null;index"`
	Status            finance.WriteOffStatus `gorm:"type:smallint;not null;index"`
	Remark            string                 `gorm:"type:text"`
	WriteOffBy        uuid.UUID              `gorm:"type:uuid;not null"`
	WriteOffAt        time.Time              `gorm:"not null"`
	RevertedBy        *uuid.UUID             `gorm:"type:uuid"`
	RevertedAt        *time.Time
	RevertReason      string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (WriteOffModel) TableName() string {
	return "write_offs"
}

// ToDomain converts the persistence model to a domain WriteOff entity.
func (m *WriteOffModel) ToDomain() *finance.WriteOff {
	w := &finance.WriteOff{
		WriteOffNo:        m.WriteOffNo,
		PaymentReceivedID: m.PaymentReceivedID,
		PaymentRequestID:  m.PaymentRequestID,
		CustomerID:        m.CustomerID,
		ContractID:        m.ContractID,
		Amount:            m.Amount,
		WriteOffDate:      m.WriteOffDate,
		Status:            m.Status,
		Remark:            m.Remark,
		WriteOffBy:        m.WriteOffBy,
		WriteOffAt:        m.WriteOffAt,
		RevertedBy:        m.RevertedBy,
		RevertedAt:        m.RevertedAt,
		RevertReason:      m.RevertReason,
	}
	w.BaseEntity = m.BaseModel.ToDomain()
	w.Version = m.Version
	return w
}

// FromDomain populates the persistence model from a domain WriteOff entity.
func (m *WriteOffModel) FromDomain(w *finance.WriteOff) {
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	m.WriteOffNo = w.WriteOffNo
	m.PaymentReceivedID = w.PaymentReceivedID
	m.PaymentRequestID = w.PaymentRequestID
	m.CustomerID = w.CustomerID
	m.ContractID = w.ContractID
	m.Amount = w.Amount
	m.WriteOffDate = w.WriteOffDate
	m.Status = w.Status
	m.Remark = w.Remark
	m.WriteOffBy = w.WriteOffBy
	m.WriteOffAt = w.WriteOffAt
	m.RevertedBy = w.RevertedBy
	m.RevertedAt = w.RevertedAt
	m.RevertReason = w.RevertReason
}

// WriteOffModelFromDomain creates a new persistence model from a domain WriteOff.
func WriteOffModelFromDomain(w *finance.WriteOff) *WriteOffModel {
	m := &WriteOffModel{}
	m.FromDomain(w)
	return m
}

// PaymentRequestModel is the persistence model for payment requests. The
// intake workflow owns these rows; this subsystem only reads them.
type PaymentRequestModel struct {
	BaseModel
	RequestNo string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_requests_no"`
	Title     string          `gorm:"type:varchar(200)"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PaymentRequestModel) TableName() string {
	return "payment_requests"
}

// ToDomain converts the persistence model to a domain PaymentRequest entity.
func (m *PaymentRequestModel) ToDomain() *finance.PaymentRequest {
	return &finance.PaymentRequest{
		BaseEntity: m.BaseModel.ToDomain(),
		RequestNo:  m.RequestNo,
		Title:      m.Title,
		Amount:     m.Amount,
	}
}
