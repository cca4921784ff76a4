package repository

import "errors"

// Common repository errors
var (
	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrBoardNotFound is returned when a board is not found
	ErrBoardNotFound = errors.New("board not found")

	// ErrMembershipNotFound is returned when a user has no membership in a project
	ErrMembershipNotFound = errors.New("membership not found")

	// ErrDuplicateMembership is returned when a user is added to a project twice
	ErrDuplicateMembership = errors.New("user is already a member of this project")

	// ErrDuplicateBoardStatus is returned when a second board would be created
	// for the same (project, status) pair
	ErrDuplicateBoardStatus = errors.New("a board with this status already exists in the project")
)
