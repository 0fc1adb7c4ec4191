package dto

type MapperRegistrationRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MapperAuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
