package service

import (
	"errors"

	"wallet_ledger/internal/domain"

	"github.com/sirupsen/logrus"
)

// infraFailure logs an infrastructure error with its full context and returns a
// classified error whose client message carries none of the cause.
func infraFailure(log logrus.FieldLogger, code domain.Code, message, operation string, fields logrus.Fields, err error) error {
	log.WithFields(fields).
		WithField("operation", operation).
		WithError(err).
		Error(message)
	return domain.Wrap(code, message, err)
}

// isClassified reports whether err already carries a domain classification.
func isClassified(err error) bool {
	var e *domain.Error
	return errors.As(err, &e)
}
