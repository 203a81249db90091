// Package validator provides a small validation abstraction for usecase input
// structs.
//
// Business code depends on the Validator interface. V10Validator is backed by
// go-playground/validator v10 with English messages and the custom
// "password" and "username" tags.
package validator
