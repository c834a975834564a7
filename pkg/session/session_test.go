package session_test

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
	"github.com/qaharness/api-test-framework/pkg/session"
)

var _ = Describe("Session", func() {
	var s *session.Session

	BeforeEach(func() {
		s = session.New()
	})

	It("should fail to read a token that was never set", func() {
		_, err := s.Token()
		Expect(srvErrors.IsNotSetError(err)).To(BeTrue())
		Expect(s.IsValid()).To(BeFalse())
	})

	It("should reject an empty token", func() {
		Expect(srvErrors.IsValidationError(s.SetToken(""))).To(BeTrue())
		Expect(srvErrors.IsValidationError(s.SetToken("   "))).To(BeTrue())
	})

	It("should return the stored token", func() {
		Expect(s.SetToken("abcdefghijkl")).To(Succeed())

		token, err := s.Token()
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("abcdefghijkl"))
		Expect(s.IsValid()).To(BeTrue())
	})

	It("should treat tokens of ten characters or fewer as invalid", func() {
		Expect(s.SetToken("0123456789")).To(Succeed())
		Expect(s.IsValid()).To(BeFalse())

		Expect(s.SetToken("0123456789a")).To(Succeed())
		Expect(s.IsValid()).To(BeTrue())
	})

	It("should forget the token after ClearToken", func() {
		Expect(s.SetToken("abcdefghijkl")).To(Succeed())
		s.ClearToken()

		_, err := s.Token()
		Expect(srvErrors.IsNotSetError(err)).To(BeTrue())
	})

	It("should be visible to every holder of the session", func() {
		// Given two consumers sharing one session
		other := s

		// When one stores a token
		Expect(s.SetToken("shared-token-value")).To(Succeed())

		// Then the other reads it
		token, err := other.Token()
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("shared-token-value"))
	})

	It("should survive concurrent writers and readers", func() {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = s.SetToken("concurrent-token")
			}()
			go func() {
				defer wg.Done()
				_ = s.IsValid()
			}()
		}
		wg.Wait()

		Expect(s.IsValid()).To(BeTrue())
	})

	Describe("Claims", func() {
		It("should decode an unverified jwt", func() {
			// Arrange
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": "qa-user",
				"exp": time.Now().Add(time.Hour).Unix(),
			})
			signed, err := token.SignedString([]byte("any-key"))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SetToken(signed)).To(Succeed())

			// Act
			claims, err := s.Claims()

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(claims["sub"]).To(Equal("qa-user"))
		})

		It("should report an opaque token as invalid", func() {
			Expect(s.SetToken("opaque-token-value")).To(Succeed())

			_, err := s.Claims()
			Expect(srvErrors.IsValidationError(err)).To(BeTrue())
		})
	})
})
