package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// DoctorInfo is the identity slice of a doctor the scheduling core needs:
// display fields for responses and notification content, nothing more.
type DoctorInfo struct {
	ID             uuid.UUID
	FirstName      string
	LastName       string
	Email          *string
	Specialization *string
	Department     *string
}

func (d DoctorInfo) DisplayName() string {
	return "Dr. " + d.FirstName + " " + d.LastName
}

type PatientInfo struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	Age       *int
}

func (p PatientInfo) DisplayName() string {
	return p.FirstName + " " + p.LastName
}

// Directory resolves doctor and patient identities. The scheduling core never
// uses it for authorization, only to enrich responses and notifications.
type Directory interface {
	ResolveDoctor(ctx context.Context, id uuid.UUID) (*DoctorInfo, error)
	ResolvePatient(ctx context.Context, id uuid.UUID) (*PatientInfo, error)
}
