package domain

// User is an identity known to the relationship service. Two users are the
// same identity when their IDs match.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	City        string `json:"city,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
}

// Same reports whether u and other refer to the same identity.
func (u User) Same(other User) bool {
	return u.ID == other.ID
}

// Credentials are submitted to the identity issuer to obtain a token.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Profile is the registration payload forwarded to the identity issuer.
type Profile struct {
	Username    string `json:"username" validate:"required,min=3"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,password"`
	City        string `json:"city" validate:"required"`
	ZipCode     string `json:"zipCode" validate:"required"`
	Street      string `json:"street" validate:"required"`
	HouseNumber string `json:"houseNumber" validate:"required"`
	Mobile      string `json:"mobile" validate:"required"`
}
