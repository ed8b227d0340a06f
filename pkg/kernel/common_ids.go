package kernel

import "github.com/google/uuid"

type JobID string

func NewJobID() JobID            { return JobID(uuid.NewString()) }
func ParseJobID(id string) JobID { return JobID(id) }
func (j JobID) String() string   { return string(j) }
func (j JobID) IsEmpty() bool    { return string(j) == "" }

type PaymentID string

func NewPaymentID(id string) PaymentID { return PaymentID(id) }
func (p PaymentID) String() string     { return string(p) }
func (p PaymentID) IsEmpty() bool      { return string(p) == "" }

type ArtifactID string

func NewArtifactID() ArtifactID        { return ArtifactID(uuid.NewString()) }
func (a ArtifactID) String() string    { return string(a) }
func (a ArtifactID) IsEmpty() bool     { return string(a) == "" }
