package server_test

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/buildtrack/buildtrack/citest/testutil"
	"github.com/buildtrack/buildtrack/internal/config"
	"github.com/buildtrack/buildtrack/pkg/types"
)

var _ = Describe("Settings and Storage Switching", func() {
	var startDir string

	BeforeEach(func() {
		startDir = testServer.App.Supervisor.Dir()
	})

	AfterEach(func() {
		Expect(client.MustSucceed(ctx, "settings.update", map[string]any{"dbPath": startDir}, nil)).To(Succeed())
	})

	It("should return the app config with the default theme", func() {
		var cfg types.AppConfig
		Expect(client.MustSucceed(ctx, "settings.get", nil, &cfg)).To(Succeed())
		Expect(cfg.Theme).NotTo(BeEmpty())
	})

	It("should switch storage, announce it and persist the path", func() {
		sse := testServer.SSEClient()
		Expect(sse.Connect(ctx, "/event")).To(Succeed())
		defer sse.Close()
		_, err := sse.WaitForPush("server.connected", 5*time.Second)
		Expect(err).NotTo(HaveOccurred())

		p, err := client.CreateProject(ctx, testutil.SampleProject())
		Expect(err).NotTo(HaveOccurred())

		dir := filepath.Join(testServer.TempDir, "moved-"+testutil.RandomString(6))
		var cfg types.AppConfig
		Expect(client.MustSucceed(ctx, "settings.update", map[string]any{"dbPath": dir}, &cfg)).To(Succeed())
		Expect(cfg.DBPath).To(Equal(dir))

		push, err := sse.WaitForPush("database.switched", 5*time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(push.Properties)).To(ContainSubstring(dir))

		// The new directory starts empty.
		var list []types.Project
		Expect(client.MustSucceed(ctx, "project.list", nil, &list)).To(Succeed())
		Expect(list).NotTo(ContainElement(HaveField("ID", p.ID)))

		saved, err := config.Load(testServer.ConfigPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.DBPath).To(Equal(dir))

		// Switching back finds the project again.
		Expect(client.MustSucceed(ctx, "settings.update", map[string]any{"dbPath": startDir}, nil)).To(Succeed())
		Expect(client.MustSucceed(ctx, "project.list", nil, &list)).To(Succeed())
		Expect(list).To(ContainElement(HaveField("ID", p.ID)))
		Expect(client.DeleteProject(ctx, p.ID)).To(Succeed())
	})

	It("should report the running state", func() {
		var st struct {
			State   string `json:"state"`
			Dir     string `json:"dir"`
			Backend string `json:"backend"`
		}
		Expect(client.MustSucceed(ctx, "settings.status", nil, &st)).To(Succeed())
		Expect(st.State).To(Equal("running"))
		Expect(st.Dir).To(Equal(startDir))
		Expect(st.Backend).To(Equal("file"))
	})
})

var _ = Describe("Authentication", func() {
	AfterEach(func() {
		client.MustSucceed(ctx, "auth.logout", nil, nil)
	})

	It("should log the seeded admin in and out", func() {
		res, err := client.Call(ctx, "auth.login", map[string]any{"username": "admin", "password": "wrong"})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Success).To(BeFalse())

		var u types.User
		Expect(client.MustSucceed(ctx, "auth.login", map[string]any{"username": "admin", "password": "admin123"}, &u)).To(Succeed())
		Expect(u.Username).To(Equal("admin"))

		var current types.User
		Expect(client.MustSucceed(ctx, "auth.current", nil, &current)).To(Succeed())
		Expect(current.Username).To(Equal("admin"))

		Expect(client.MustSucceed(ctx, "auth.logout", nil, nil)).To(Succeed())
		res, err = client.Call(ctx, "auth.current", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Data).To(BeEmpty())
	})
})

var _ = Describe("Calculators", func() {
	It("should estimate wages", func() {
		var est struct {
			PerWorker float64 `json:"perWorker"`
			Total     float64 `json:"total"`
		}
		Expect(client.MustSucceed(ctx, "calculator.wage", map[string]any{"workers": 3, "dailyWage": 600, "days": 5}, &est)).To(Succeed())
		Expect(est.PerWorker).To(Equal(3000.0))
		Expect(est.Total).To(Equal(9000.0))
	})
})
