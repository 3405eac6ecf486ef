package errors

import (
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Structured Errors", func() {
	Describe("AppError", func() {
		Context("basic error creation", func() {
			It("should create error with correct properties", func() {
				err := New(ErrorTypeValidation, "fuzzy_dedup_threshold must be between 0.0 and 1.0")

				Expect(err.Type).To(Equal(ErrorTypeValidation))
				Expect(err.Message).To(Equal("fuzzy_dedup_threshold must be between 0.0 and 1.0"))
				Expect(err.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(err.Details).To(BeEmpty())
				Expect(err.Cause).To(BeNil())
			})

			It("should implement error interface correctly", func() {
				err := New(ErrorTypeValidation, "test message")

				Expect(err.Error()).To(Equal("validation: test message"))
			})

			It("should include details in error string when present", func() {
				err := New(ErrorTypeValidation, "test message").WithDetails("extra info")

				Expect(err.Error()).To(Equal("validation: test message (extra info)"))
			})
		})

		Context("error wrapping", func() {
			It("should wrap underlying error", func() {
				originalErr := errors.New("bolt://neo4j:7687: connection refused")
				wrappedErr := Wrap(originalErr, ErrorTypeDatabase, "graph persistence failed")

				Expect(wrappedErr.Type).To(Equal(ErrorTypeDatabase))
				Expect(wrappedErr.Message).To(Equal("graph persistence failed"))
				Expect(wrappedErr.Cause).To(Equal(originalErr))
				Expect(wrappedErr.Unwrap()).To(Equal(originalErr))
			})

			It("should format wrapped error with arguments", func() {
				originalErr := errors.New("context deadline exceeded")
				wrappedErr := Wrapf(originalErr, ErrorTypeTimeout, "fetch timed out after %d tiers for %s", 2, "example.com")

				Expect(wrappedErr.Message).To(Equal("fetch timed out after 2 tiers for example.com"))
				Expect(wrappedErr.Cause).To(Equal(originalErr))
			})
		})

		Context("adding details", func() {
			It("should add details to existing error", func() {
				err := New(ErrorTypeProvider, "all providers failed for task risk_judge")
				detailedErr := err.WithDetails("claude: 503, openai: rate limited, gemini: 500")

				Expect(detailedErr.Details).To(Equal("claude: 503, openai: rate limited, gemini: 500"))
				Expect(detailedErr).To(BeIdenticalTo(err)) // Should modify in place
			})

			It("should add formatted details", func() {
				err := New(ErrorTypeBudget, "investigation budget exhausted")
				detailedErr := err.WithDetailsf("spent %.2f of %.2f over %d iterations", 12.50, 10.00, 9)

				Expect(detailedErr.Details).To(Equal("spent 12.50 of 10.00 over 9 iterations"))
			})
		})
	})

	Describe("HTTP Status Code Mapping", func() {
		It("should map error types to correct HTTP status codes", func() {
			testCases := []struct {
				errorType  ErrorType
				statusCode int
			}{
				{ErrorTypeValidation, http.StatusBadRequest},
				{ErrorTypeAuth, http.StatusUnauthorized},
				{ErrorTypeNotFound, http.StatusNotFound},
				{ErrorTypeConflict, http.StatusConflict},
				{ErrorTypeTimeout, http.StatusRequestTimeout},
				{ErrorTypeRateLimit, http.StatusTooManyRequests},
				{ErrorTypeDatabase, http.StatusInternalServerError},
				{ErrorTypeNetwork, http.StatusInternalServerError},
				{ErrorTypeInternal, http.StatusInternalServerError},
				{ErrorTypeBudget, http.StatusPaymentRequired},
				{ErrorTypeProvider, http.StatusBadGateway},
			}

			for _, tc := range testCases {
				err := New(tc.errorType, "test message")
				Expect(err.StatusCode).To(Equal(tc.statusCode))
			}
		})

		It("should fall back to 500 for an unregistered error type", func() {
			err := New(ErrorType("unregistered"), "test message")
			Expect(err.StatusCode).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Predefined Error Constructors", func() {
		It("should create validation error", func() {
			err := NewValidationError("subject name is required")

			Expect(err.Type).To(Equal(ErrorTypeValidation))
			Expect(err.Message).To(Equal("subject name is required"))
		})

		It("should create database error", func() {
			originalErr := errors.New("constraint violation")
			err := NewDatabaseError("upsert entity", originalErr)

			Expect(err.Type).To(Equal(ErrorTypeDatabase))
			Expect(err.Message).To(ContainSubstring("database operation failed: upsert entity"))
			Expect(err.Cause).To(Equal(originalErr))
		})

		It("should create not found error", func() {
			err := NewNotFoundError("checkpoint")

			Expect(err.Type).To(Equal(ErrorTypeNotFound))
			Expect(err.Message).To(Equal("checkpoint not found"))
		})

		It("should create auth error", func() {
			err := NewAuthError("invalid llm proxy api key")

			Expect(err.Type).To(Equal(ErrorTypeAuth))
			Expect(err.Message).To(Equal("invalid llm proxy api key"))
		})

		It("should create timeout error", func() {
			err := NewTimeoutError("tiered fetch")

			Expect(err.Type).To(Equal(ErrorTypeTimeout))
			Expect(err.Message).To(Equal("operation timed out: tiered fetch"))
		})

		It("should create a budget error naming the spend and ceiling", func() {
			err := NewBudgetError(10.0, 10.43)

			Expect(err.Type).To(Equal(ErrorTypeBudget))
			Expect(err.Message).To(Equal("budget ceiling exceeded: spent 10.4300 of 10.0000"))
			Expect(err.StatusCode).To(Equal(http.StatusPaymentRequired))
		})

		It("should create a provider error listing every failed attempt", func() {
			err := NewProviderError("risk_judge", []string{"claude: 503", "openai: rate limited", "gemini: 500"})

			Expect(err.Type).To(Equal(ErrorTypeProvider))
			Expect(err.Message).To(ContainSubstring("all providers failed for task risk_judge"))
			Expect(err.Message).To(ContainSubstring("claude: 503"))
			Expect(err.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("Error Type Checking", func() {
		It("should correctly identify error types", func() {
			budgetErr := NewBudgetError(10.0, 11.0)
			providerErr := NewProviderError("fact_extraction", []string{"openai: timeout"})

			Expect(IsType(budgetErr, ErrorTypeBudget)).To(BeTrue())
			Expect(IsType(budgetErr, ErrorTypeProvider)).To(BeFalse())
			Expect(IsType(providerErr, ErrorTypeProvider)).To(BeTrue())
		})

		It("should handle non-AppError types", func() {
			regularErr := errors.New("regular error")

			Expect(IsType(regularErr, ErrorTypeValidation)).To(BeFalse())
			Expect(GetType(regularErr)).To(Equal(ErrorTypeInternal))
		})

		It("should get correct status codes", func() {
			providerErr := NewProviderError("web_research", []string{"serpapi: 429"})
			regularErr := errors.New("regular error")

			Expect(GetStatusCode(providerErr)).To(Equal(http.StatusBadGateway))
			Expect(GetStatusCode(regularErr)).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Safe Error Messages", func() {
		It("should return safe messages for different error types", func() {
			testCases := []struct {
				errorType    ErrorType
				expectedSafe string
			}{
				{ErrorTypeValidation, ""}, // Validation messages are passed through
				{ErrorTypeNotFound, ErrorMessages.ResourceNotFound},
				{ErrorTypeAuth, ErrorMessages.AuthenticationFailed},
				{ErrorTypeTimeout, ErrorMessages.OperationTimeout},
				{ErrorTypeRateLimit, ErrorMessages.RateLimitExceeded},
				{ErrorTypeConflict, ErrorMessages.ConcurrentModification},
				{ErrorTypeDatabase, "An internal error occurred"},
				{ErrorTypeBudget, ErrorMessages.BudgetExceeded},
				{ErrorTypeProvider, ErrorMessages.AllProvidersUnavailable},
			}

			for _, tc := range testCases {
				var err error
				switch tc.errorType {
				case ErrorTypeValidation:
					err = NewValidationError("specific validation message")
					Expect(SafeErrorMessage(err)).To(Equal("specific validation message"))
					continue
				default:
					err = New(tc.errorType, "internal details")
				}

				Expect(SafeErrorMessage(err)).To(Equal(tc.expectedSafe))
			}
		})

		It("should return generic message for regular errors", func() {
			regularErr := errors.New("internal panic")
			safeMsg := SafeErrorMessage(regularErr)

			Expect(safeMsg).To(Equal("An unexpected error occurred"))
		})
	})

	Describe("Logging Fields", func() {
		It("should generate structured logging fields for a provider failure", func() {
			originalErr := errors.New("openai: 503 service unavailable")
			appErr := Wrapf(originalErr, ErrorTypeProvider, "all providers failed for task %s", "risk_judge").
				WithDetails("claude: 429, openai: 503, gemini: 500")

			fields := LogFields(appErr)

			Expect(fields).To(HaveKey("error"))
			Expect(fields).To(HaveKey("error_type"))
			Expect(fields).To(HaveKey("status_code"))
			Expect(fields).To(HaveKey("error_details"))
			Expect(fields).To(HaveKey("underlying_error"))

			Expect(fields["error_type"]).To(Equal("provider"))
			Expect(fields["status_code"]).To(Equal(http.StatusBadGateway))
			Expect(fields["error_details"]).To(Equal("claude: 429, openai: 503, gemini: 500"))
			Expect(fields["underlying_error"]).To(Equal("openai: 503 service unavailable"))
		})

		It("should handle simple AppError without details", func() {
			err := NewBudgetError(5.0, 5.01)
			fields := LogFields(err)

			Expect(fields).To(HaveKey("error"))
			Expect(fields).To(HaveKey("error_type"))
			Expect(fields).To(HaveKey("status_code"))
			Expect(fields).NotTo(HaveKey("error_details"))
			Expect(fields).NotTo(HaveKey("underlying_error"))
		})

		It("should handle regular errors", func() {
			err := errors.New("regular error")
			fields := LogFields(err)

			Expect(fields).To(HaveKey("error"))
			Expect(fields).NotTo(HaveKey("error_type"))
		})
	})

	Describe("Error Chaining", func() {
		It("should handle empty error list", func() {
			err := Chain()
			Expect(err).To(BeNil())
		})

		It("should handle single error", func() {
			originalErr := errors.New("single error")
			err := Chain(originalErr)

			Expect(err).To(Equal(originalErr))
		})

		It("should filter nil errors", func() {
			err1 := errors.New("proponent debater failed")
			err2 := errors.New("skeptic debater failed")

			err := Chain(err1, nil, err2, nil)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("proponent debater failed"))
			Expect(err.Error()).To(ContainSubstring("skeptic debater failed"))
		})

		It("should chain multiple worker failures", func() {
			err1 := errors.New("connection_mapping: gateway call failed")
			err2 := errors.New("temporal_analysis: gateway call failed")
			err3 := errors.New("source_verification: gateway call failed")

			chainedErr := Chain(err1, err2, err3)

			Expect(chainedErr).To(HaveOccurred())
			errMsg := chainedErr.Error()
			Expect(errMsg).To(ContainSubstring("connection_mapping"))
			Expect(errMsg).To(ContainSubstring("temporal_analysis"))
			Expect(errMsg).To(ContainSubstring("source_verification"))
			Expect(errMsg).To(ContainSubstring(" -> "))
		})

		It("should return nil when all errors are nil", func() {
			err := Chain(nil, nil, nil)
			Expect(err).To(BeNil())
		})
	})

	Describe("Error Type Constants", func() {
		It("should have all expected error types defined", func() {
			expectedTypes := []ErrorType{
				ErrorTypeValidation,
				ErrorTypeDatabase,
				ErrorTypeNetwork,
				ErrorTypeAuth,
				ErrorTypeNotFound,
				ErrorTypeConflict,
				ErrorTypeInternal,
				ErrorTypeTimeout,
				ErrorTypeRateLimit,
				ErrorTypeBudget,
				ErrorTypeProvider,
			}

			for _, errorType := range expectedTypes {
				Expect(string(errorType)).NotTo(BeEmpty())
			}
		})
	})
})
