package employee

import (
	"context"
)

type EmployeeService interface {
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetEmployee(ctx context.Context, id string) (EmployeeResponse, error)
	GetMyProfile(ctx context.Context) (EmployeeResponse, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) (ListEmployeeResponse, error)
	UpdateEmployee(ctx context.Context, req UpdateEmployeeRequest) (EmployeeResponse, error)
	DeleteEmployee(ctx context.Context, id string) error

	RegenerateDeviceCode(ctx context.Context, id string) (DeviceCodeResponse, error)

	// EnrollFace replaces the stored descriptor for an employee of the admin's company.
	EnrollFace(ctx context.Context, req EnrollFaceRequest) (EmployeeResponse, error)
	// EnrollMyFace lets an employee enroll their own face.
	EnrollMyFace(ctx context.Context, req EnrollFaceRequest) (EmployeeResponse, error)
	RemoveFace(ctx context.Context, id string) error
}
