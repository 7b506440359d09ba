package credentials_test

import (
	"context"
	"errors"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/jobpilot/pkg/cache"
	"github.com/papercomputeco/jobpilot/pkg/credentials"
)

type brokenSource struct{}

func (brokenSource) Token(context.Context) (string, error) {
	return "", errors.New("keychain locked")
}

var _ = Describe("Token sources", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("StaticToken", func() {
		It("returns the token", func() {
			token, err := credentials.StaticToken("t").Token(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("t"))
		})

		It("reports an empty token as missing", func() {
			_, err := credentials.StaticToken("").Token(ctx)
			Expect(err).To(MatchError(credentials.ErrNoToken))
		})
	})

	Describe("EnvToken", func() {
		It("reads JOBPILOT_TOKEN by default", func() {
			GinkgoT().Setenv(credentials.EnvVar, " env-token ")

			token, err := credentials.EnvToken{}.Token(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("env-token"))
		})

		It("reports an unset variable as missing", func() {
			GinkgoT().Setenv("JOBPILOT_TEST_UNSET", "")

			_, err := credentials.EnvToken{Var: "JOBPILOT_TEST_UNSET"}.Token(ctx)
			Expect(err).To(MatchError(credentials.ErrNoToken))
		})
	})

	Describe("FileTokenSource", func() {
		var (
			tmpDir string
			mgr    *credentials.Manager
			now    time.Time
		)

		BeforeEach(func() {
			var err error
			tmpDir, err = os.MkdirTemp("", "credentials-test-*")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { os.RemoveAll(tmpDir) })

			mgr, err = credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			now = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		})

		newSource := func() *credentials.FileTokenSource {
			return credentials.NewFileTokenSource(mgr, time.Minute, cache.WithClock[string](func() time.Time { return now }))
		}

		It("reports a missing token", func() {
			_, err := newSource().Token(ctx)
			Expect(err).To(MatchError(credentials.ErrNoToken))
		})

		It("serves the cached token until it goes stale", func() {
			Expect(mgr.SetToken("first")).To(Succeed())
			src := newSource()

			token, err := src.Token(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("first"))

			Expect(mgr.SetToken("second")).To(Succeed())
			token, _ = src.Token(ctx)
			Expect(token).To(Equal("first"))

			now = now.Add(2 * time.Minute)
			token, _ = src.Token(ctx)
			Expect(token).To(Equal("second"))
		})

		It("rereads the file after Invalidate", func() {
			Expect(mgr.SetToken("first")).To(Succeed())
			src := newSource()
			_, _ = src.Token(ctx)

			Expect(mgr.SetToken("second")).To(Succeed())
			src.Invalidate()

			token, err := src.Token(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("second"))
		})
	})

	Describe("Chain", func() {
		It("returns the first token found", func() {
			chain := credentials.Chain{credentials.StaticToken(""), credentials.StaticToken("b"), credentials.StaticToken("c")}
			token, err := chain.Token(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("b"))
		})

		It("reports a missing token when every source is empty", func() {
			_, err := credentials.Chain{credentials.StaticToken("")}.Token(ctx)
			Expect(err).To(MatchError(credentials.ErrNoToken))
		})

		It("stops at a source failure", func() {
			chain := credentials.Chain{brokenSource{}, credentials.StaticToken("b")}
			_, err := chain.Token(ctx)
			Expect(err).To(MatchError("keychain locked"))
		})
	})

	Describe("NewDefaultTokenSource", func() {
		var tmpDir string

		BeforeEach(func() {
			tmpDir = GinkgoT().TempDir()
			GinkgoT().Setenv(credentials.EnvVar, "")
		})

		It("prefers the environment over the stored token", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.SetToken("from-file")).To(Succeed())

			src, err := credentials.NewDefaultTokenSource(tmpDir, time.Minute)
			Expect(err).NotTo(HaveOccurred())

			token, err := src.Token(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("from-file"))

			GinkgoT().Setenv(credentials.EnvVar, "from-env")
			token, err = src.Token(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(Equal("from-env"))
		})

		It("reports a missing token when nothing is configured", func() {
			src, err := credentials.NewDefaultTokenSource(tmpDir, time.Minute)
			Expect(err).NotTo(HaveOccurred())

			_, err = src.Token(ctx)
			Expect(err).To(MatchError(credentials.ErrNoToken))
		})
	})
})
