package server_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/buildtrack/buildtrack/citest/testutil"
)

var _ = Describe("HTTP Endpoints", func() {
	Describe("GET /health", func() {
		It("should report the supervisor as running", func() {
			resp, err := client.Get(ctx, "/health")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Status     string `json:"status"`
				Supervisor struct {
					State   string `json:"state"`
					Backend string `json:"backend"`
				} `json:"supervisor"`
			}
			Expect(resp.JSON(&body)).To(Succeed())
			Expect(body.Status).To(Equal("ok"))
			Expect(body.Supervisor.State).To(Equal("running"))
			Expect(body.Supervisor.Backend).To(Equal("file"))
		})
	})

	Describe("GET /rpc", func() {
		It("should list the operations", func() {
			ops, err := client.Operations(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ops).To(ContainElements(
				"project.list", "project.create", "worker.create",
				"finance.summary", "finance.budget", "settings.update",
				"auth.login", "calculator.wage",
			))
		})
	})

	Describe("POST /rpc/{operation}", func() {
		It("should answer unknown operations with a suggestion", func() {
			res, err := client.Call(ctx, "project.lst", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.Message).To(ContainSubstring(`did you mean "project.list"`))
		})

		It("should reject a body that is not JSON", func() {
			resp, err := client.Post(ctx, "/rpc/project.list", []byte("{not json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should carry validation failures in the envelope", func() {
			in := testutil.SampleProject()
			in["name"] = ""

			res, err := client.Call(ctx, "project.create", in)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeFalse())
			Expect(res.Message).To(ContainSubstring("name"))
		})
	})

	Describe("GET /metrics", func() {
		It("should expose request counters", func() {
			_, err := client.Call(ctx, "project.list", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := client.Get(ctx, "/metrics")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.String()).To(ContainSubstring("buildtrack_rpc_requests_total"))
		})
	})
})
