package request

import "github.com/google/uuid"

type FindProducts struct {
	CategoryID uuid.NullUUID
}

type SearchProducts struct {
	Query string `validate:"max=100"`
}
