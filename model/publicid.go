package model

import "github.com/google/uuid"

// GeneratePublicID builds a resource identifier of the form
// "smi:<authority>/<classType>/<uuid>" for callers that create an object
// without an externally supplied publicID, mirroring the teacher's use of
// uuid.New() to mint a synthetic ObjectID/ChangeID when nothing else
// uniquely identifies a row.
func GeneratePublicID(authority, classType string) string {
	return "smi:" + authority + "/" + classType + "/" + uuid.NewString()
}
