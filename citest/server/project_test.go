package server_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/buildtrack/buildtrack/citest/testutil"
	"github.com/buildtrack/buildtrack/pkg/types"
)

var _ = Describe("Project Bookkeeping", func() {
	var project *types.Project

	BeforeEach(func() {
		var err error
		project, err = client.CreateProject(ctx, testutil.SampleProject())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if project != nil {
			client.DeleteProject(ctx, project.ID)
		}
	})

	It("should store and return the project", func() {
		var got types.Project
		Expect(client.MustSucceed(ctx, "project.get", map[string]any{"id": project.ID}, &got)).To(Succeed())
		Expect(got.Name).To(Equal(project.Name))
		Expect(got.Budget).To(Equal(types.Amount(10000)))

		var list []types.Project
		Expect(client.MustSucceed(ctx, "project.list", nil, &list)).To(Succeed())
		Expect(list).To(ContainElement(HaveField("ID", project.ID)))
	})

	It("should apply partial updates", func() {
		var updated types.Project
		Expect(client.MustSucceed(ctx, "project.update", map[string]any{
			"id":      project.ID,
			"updates": map[string]any{"location": "Nashik"},
		}, &updated)).To(Succeed())
		Expect(updated.Location).To(Equal("Nashik"))
		Expect(updated.Name).To(Equal(project.Name))
		Expect(updated.UpdatedAt).NotTo(BeNil())
	})

	It("should derive a worker's cost from wage and days", func() {
		var w types.Worker
		Expect(client.MustSucceed(ctx, "worker.create", testutil.SampleWorker(project.ID), &w)).To(Succeed())
		Expect(w.TotalCost).To(Equal(types.Amount(5000)))

		var updated types.Worker
		Expect(client.MustSucceed(ctx, "worker.update", map[string]any{
			"id":      w.ID,
			"updates": map[string]any{"daysWorked": 12},
		}, &updated)).To(Succeed())
		Expect(updated.TotalCost).To(Equal(types.Amount(6000)))
	})

	It("should total every cost category and report against the budget", func() {
		Expect(client.MustSucceed(ctx, "worker.create", testutil.SampleWorker(project.ID), nil)).To(Succeed())
		Expect(client.MustSucceed(ctx, "material.create", map[string]any{
			"projectId": project.ID, "name": "Cement", "quantity": 40, "unit": "bag", "unitPrice": 50,
		}, nil)).To(Succeed())
		Expect(client.MustSucceed(ctx, "equipment.create", map[string]any{
			"projectId": project.ID, "name": "Mixer", "status": "Available", "ownership": "Owned", "totalCost": 1500,
		}, nil)).To(Succeed())
		Expect(client.MustSucceed(ctx, "expense.create", map[string]any{
			"projectId": project.ID, "amount": 300,
		}, nil)).To(Succeed())

		var summary types.FinancialSummary
		Expect(client.MustSucceed(ctx, "finance.summary", map[string]any{"projectId": project.ID}, &summary)).To(Succeed())
		Expect(summary.LabourCost).To(Equal(5000.0))
		Expect(summary.MaterialCost).To(Equal(2000.0))
		Expect(summary.EquipmentCost).To(Equal(1500.0))
		Expect(summary.OtherExpenses).To(Equal(300.0))
		Expect(summary.TotalCost).To(Equal(8800.0))

		var report types.BudgetReport
		Expect(client.MustSucceed(ctx, "finance.budget", map[string]any{"projectId": project.ID}, &report)).To(Succeed())
		Expect(report.Remaining).To(Equal(1200.0))
		Expect(report.Utilization).To(Equal(88.0))
		Expect(report.OverBudget).To(BeFalse())
	})

	It("should refuse to delete a project with records unless cascading", func() {
		Expect(client.MustSucceed(ctx, "expense.create", map[string]any{
			"projectId": project.ID, "amount": 120,
		}, nil)).To(Succeed())

		res, err := client.Call(ctx, "project.delete", map[string]any{"id": project.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Success).To(BeFalse())

		Expect(client.DeleteProject(ctx, project.ID)).To(Succeed())

		var expenses []types.Expense
		Expect(client.MustSucceed(ctx, "expense.list", map[string]any{"projectId": project.ID}, &expenses)).To(Succeed())
		Expect(expenses).To(BeEmpty())
		project = nil
	})

	It("should reject children of a project that does not exist", func() {
		res, err := client.Call(ctx, "worker.create", testutil.SampleWorker(types.NewID()))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Success).To(BeFalse())
	})
})
