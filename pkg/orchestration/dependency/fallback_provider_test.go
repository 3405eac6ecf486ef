package dependency_test

import (
	"errors"
	"strings"
	"time"

	"github.com/deepresearch/investigator/pkg/orchestration/dependency"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func transientClassifier(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"429", "500", "503", "rate", "timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

var _ = Describe("FallbackChain", func() {
	It("returns the primary's response when the primary succeeds", func() {
		chain := dependency.NewFallbackChain("planning", "deep", transientClassifier, nil)
		chain.AddProvider("claude", 0.5, time.Minute, func() ([]byte, error) {
			return []byte("claude-response"), nil
		})
		chain.AddProvider("openai", 0.5, time.Minute, func() ([]byte, error) {
			return []byte("openai-response"), nil
		})

		resp, err := chain.Execute()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(resp)).To(Equal("claude-response"))
	})

	It("falls back to the next provider on a transient primary failure", func() {
		var events []dependency.FallbackEvent
		chain := dependency.NewFallbackChain("planning", "deep", transientClassifier, func(e dependency.FallbackEvent) {
			events = append(events, e)
		})
		chain.AddProvider("claude", 0.5, time.Minute, func() ([]byte, error) {
			return nil, errors.New("429 rate limited")
		})
		chain.AddProvider("openai", 0.5, time.Minute, func() ([]byte, error) {
			return []byte("openai-response"), nil
		})

		resp, err := chain.Execute()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(resp)).To(Equal("openai-response"))
		Expect(events).To(HaveLen(1))
		Expect(events[0].Primary).To(Equal("claude"))
		Expect(events[0].Fallback).To(Equal("openai"))
	})

	It("propagates a permanent primary failure without trying the fallback", func() {
		fallbackCalled := false
		chain := dependency.NewFallbackChain("extraction", "fast", transientClassifier, nil)
		chain.AddProvider("openai", 0.5, time.Minute, func() ([]byte, error) {
			return nil, errors.New("401 invalid api key")
		})
		chain.AddProvider("gemini", 0.5, time.Minute, func() ([]byte, error) {
			fallbackCalled = true
			return []byte("gemini-response"), nil
		})

		_, err := chain.Execute()
		Expect(err).To(HaveOccurred())
		Expect(fallbackCalled).To(BeFalse())
	})

	It("propagates the fallback's own error when both providers fail", func() {
		chain := dependency.NewFallbackChain("planning", "deep", transientClassifier, nil)
		chain.AddProvider("claude", 0.5, time.Minute, func() ([]byte, error) {
			return nil, errors.New("503 service unavailable")
		})
		chain.AddProvider("openai", 0.5, time.Minute, func() ([]byte, error) {
			return nil, errors.New("500 internal error")
		})

		_, err := chain.Execute()
		Expect(err).To(HaveOccurred())
	})

	It("errors out when no providers are configured", func() {
		chain := dependency.NewFallbackChain("planning", "deep", transientClassifier, nil)
		_, err := chain.Execute()
		Expect(err).To(HaveOccurred())
	})

	It("reports provider names in priority order", func() {
		chain := dependency.NewFallbackChain("planning", "deep", transientClassifier, nil)
		chain.AddProvider("claude", 0.5, time.Minute, func() ([]byte, error) { return nil, nil })
		chain.AddProvider("openai", 0.5, time.Minute, func() ([]byte, error) { return nil, nil })
		chain.AddProvider("gemini", 0.5, time.Minute, func() ([]byte, error) { return nil, nil })

		Expect(chain.ProviderNames()).To(Equal([]string{"claude", "openai", "gemini"}))
	})
})
