package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "pending"
	CommissionCollected CommissionStatus = "collected"
	CommissionFailed    CommissionStatus = "failed"
)

// Placement is a confirmed hire carrying a commission obligation.
// CommissionAmount is frozen at creation from the rate configured at that
// instant; later rate changes never touch existing placements.
type Placement struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobID            string             `bson:"job_id" json:"job_id"`
	EmployerID       string             `bson:"employer_id" json:"employer_id"`
	CandidateID      string             `bson:"candidate_id" json:"candidate_id"`
	JobTitle         string             `bson:"job_title" json:"job_title"`
	EmployerName     string             `bson:"employer_name" json:"employer_name"`
	CandidateName    string             `bson:"candidate_name" json:"candidate_name"`
	FirstMonthSalary int64              `bson:"first_month_salary" json:"first_month_salary"`
	CommissionAmount int64              `bson:"commission_amount" json:"commission_amount"`
	CommissionStatus CommissionStatus   `bson:"commission_status" json:"commission_status"`
	HiredAt          time.Time          `bson:"hired_at" json:"hired_at"`
	CommissionDueAt  time.Time          `bson:"commission_due_at" json:"commission_due_at"`
	CommissionPaidAt *time.Time         `bson:"commission_paid_at,omitempty" json:"commission_paid_at,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}
