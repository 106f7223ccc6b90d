package domain

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberID is the document identifier of a roster member.
// It is the 24-character hex form of a Mongo ObjectID regardless of the storage backend.
type MemberID string

// ErrMalformedMemberID indicates a value that cannot be a member identifier at all.
var ErrMalformedMemberID = errors.New("malformed member id")

// NewMemberID returns a fresh identifier.
func NewMemberID() MemberID {
	return MemberID(primitive.NewObjectID().Hex())
}

// ParseMemberID validates the syntactic form of an identifier.
func ParseMemberID(raw string) (MemberID, error) {
	raw = strings.TrimSpace(raw)
	if !primitive.IsValidObjectID(raw) {
		return "", ErrMalformedMemberID
	}
	return MemberID(strings.ToLower(raw)), nil
}

// ObjectID converts the identifier into its BSON form.
func (id MemberID) ObjectID() (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, ErrMalformedMemberID
	}
	return oid, nil
}
