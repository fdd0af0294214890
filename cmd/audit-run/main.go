package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/arrematai/auditor_backend/config"
	"github.com/arrematai/auditor_backend/models"
	"github.com/arrematai/auditor_backend/models/reports"
	"github.com/arrematai/auditor_backend/utils"
)

func main() {
	tenantID := flag.String("tenant-id", "", "Optional: audit only one tenant. If empty, audits all tenants.")
	markdown := flag.Bool("markdown", true, "Print the rendered report to stdout.")
	excelPath := flag.String("excel", "", "Optional: write the report workbook to this path.")
	flag.Parse()

	ctx := context.Background()
	// Explicit DB connect (config does not connect in init()).
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	var tenantIds []string
	if strings.TrimSpace(*tenantID) != "" {
		tenantIds = []string{strings.TrimSpace(*tenantID)}
	} else {
		var err error
		tenantIds, err = models.ListTenantIds(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list tenants: %v\n", err)
			os.Exit(1)
		}
	}
	if len(tenantIds) == 0 {
		fmt.Fprintln(os.Stderr, "no tenants found to audit")
		return
	}

	for _, tenantId := range tenantIds {
		tctx := utils.SetTenantIdInContext(ctx, tenantId)

		integrity, err := models.RunReferentialIntegrityChecks(tctx, tenantId)
		if err != nil {
			fmt.Fprintf(os.Stderr, "tenant %s: integrity checks failed: %v\n", tenantId, err)
			os.Exit(1)
		}

		builder := reports.NewReportBuilder(tenantId, envName())
		builder.AttachIntegrity(integrity)
		report := builder.Finalize()

		if *markdown {
			fmt.Println(reports.RenderMarkdown(report))
		}
		if strings.TrimSpace(*excelPath) != "" {
			f, err := reports.ExportExcel(report)
			if err != nil {
				fmt.Fprintf(os.Stderr, "tenant %s: excel export failed: %v\n", tenantId, err)
				os.Exit(1)
			}
			path := *excelPath
			if len(tenantIds) > 1 {
				path = fmt.Sprintf("%s.%s.xlsx", strings.TrimSuffix(path, ".xlsx"), tenantId)
			}
			if err := f.SaveAs(path); err != nil {
				fmt.Fprintf(os.Stderr, "tenant %s: failed to save %s: %v\n", tenantId, path, err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "tenant %s: wrote %s\n", tenantId, path)
		}
	}
}

func envName() string {
	env := strings.TrimSpace(os.Getenv("GO_ENV"))
	if env == "" {
		return "development"
	}
	return env
}
