package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/praetorian-inc/pulsar/internal/helpers"
	"github.com/praetorian-inc/pulsar/internal/logs"
	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/azure"
	"github.com/praetorian-inc/pulsar/pkg/outputters"
	"github.com/praetorian-inc/pulsar/pkg/sweep"
	"github.com/praetorian-inc/pulsar/pkg/types"
	"github.com/spf13/cobra"
)

var azureCmd = &cobra.Command{
	Use:     "azure",
	Aliases: []string{"az"},
	Short:   "azure commands",
	Long:    `Execute azure commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

var credsFlags struct {
	subscription       string
	keys               bool
	appServices        bool
	acr                bool
	storageAccounts    bool
	automationAccounts bool
	cosmosDB           bool
	modifyPolicies     bool
	principalID        string
	exportPassword     string
	exportCerts        bool
	pollInterval       time.Duration
	jobTimeout         time.Duration
}

var azureCredsCmd = &cobra.Command{
	Use:   "creds",
	Short: "Extract credentials from Azure services in one or more subscriptions",
	Long: `Sweeps key vaults, app services, container registries, storage
accounts, automation accounts, and CosmosDB accounts for extractable
credential material. Automation account extraction creates and removes
a temporary runbook in each account.`,
	RunE: runAzureCreds,
}

func init() {
	f := azureCredsCmd.Flags()
	f.StringVarP(&credsFlags.subscription, "subscription", "s", "", "subscription id (interactive selection when omitted)")
	f.BoolVar(&credsFlags.keys, "keys", true, "extract key vault secrets and keys")
	f.BoolVar(&credsFlags.appServices, "app-services", true, "extract app service publishing profiles and connection strings")
	f.BoolVar(&credsFlags.acr, "acr", true, "extract container registry admin credentials")
	f.BoolVar(&credsFlags.storageAccounts, "storage-accounts", true, "extract storage account keys")
	f.BoolVar(&credsFlags.automationAccounts, "automation-accounts", true, "extract automation account certificates and credentials")
	f.BoolVar(&credsFlags.cosmosDB, "cosmosdb", true, "extract CosmosDB account keys")
	f.BoolVar(&credsFlags.modifyPolicies, "modify-policies", false, "temporarily grant the caller vault access when reads are denied")
	f.StringVar(&credsFlags.principalID, "principal-id", "", "caller objectId for policy grants (resolved via Graph when omitted)")
	f.StringVar(&credsFlags.exportPassword, "export-password", sweep.DefaultExportPassword, "password protecting exported certificate archives")
	f.BoolVar(&credsFlags.exportCerts, "export-certs", false, "write decrypted run-as certificates to the output directory")
	f.DurationVar(&credsFlags.pollInterval, "poll-interval", 10*time.Second, "runbook job poll interval")
	f.DurationVar(&credsFlags.jobTimeout, "job-timeout", 5*time.Minute, "runbook job completion timeout")

	azureCmd.AddCommand(azureCredsCmd)
	rootCmd.AddCommand(azureCmd)
}

func runAzureCreds(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logs.ConsoleLogger()

	cred, err := helpers.GetAzureCredentials()
	if err != nil {
		return err
	}

	var subscriptions []string
	if credsFlags.subscription != "" {
		subscriptions = []string{credsFlags.subscription}
	} else {
		subs, err := helpers.ListSubscriptions(ctx, cred)
		if err != nil {
			return err
		}
		subscriptions, err = helpers.SelectSubscriptions(os.Stdin, subs)
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	var all []types.CredentialRecord
	for _, subscription := range subscriptions {
		records, err := sweepSubscription(ctx, cred, subscription, logger)
		all = append(all, records...)
		if err != nil {
			if errors.Is(err, sweep.ErrAuthenticationRequired) {
				break
			}
			message.Error("sweep of %s failed: %v", subscription, err)
		}
	}

	console := outputters.NewConsoleOutputter()
	if err := console.Write("Extracted Credentials", all); err != nil {
		return err
	}
	if err := outputters.NewCSVFileOutputter(outputDir).Write(all); err != nil {
		message.Error("writing CSV report: %v", err)
	}
	if err := outputters.NewJSONFileOutputter(outputDir).Write(all); err != nil {
		message.Error("writing JSON report: %v", err)
	}

	if len(all) == 0 {
		message.Warning("No credentials extracted")
	}
	return nil
}

func sweepSubscription(ctx context.Context, cred *azidentity.DefaultAzureCredential, subscription string, logger *slog.Logger) ([]types.CredentialRecord, error) {
	message.Info("Sweeping subscription %s", subscription)

	clients, err := azure.NewClients(cred, subscription)
	if err != nil {
		return nil, err
	}

	principalID := credsFlags.principalID
	if credsFlags.modifyPolicies {
		if principalID == "" {
			principalID, err = clients.Graph.CurrentPrincipalID(ctx)
			if err != nil {
				message.Warning("Could not resolve caller identity for policy grants: %v", err)
			}
		}
		if principalID != "" {
			count, err := helpers.CountRoleAssignments(ctx, cred, subscription, principalID)
			if err != nil {
				logger.Debug("role assignment check failed", "error", err)
			} else if count == 0 {
				message.Warning("Caller holds no role assignments in %s; policy grants will likely fail", subscription)
			}
		}
	}

	runner := sweep.NewRunner(sweep.Config{
		Subscription:       subscription,
		Keys:               credsFlags.keys,
		AppServices:        credsFlags.appServices,
		ACR:                credsFlags.acr,
		StorageAccounts:    credsFlags.storageAccounts,
		AutomationAccounts: credsFlags.automationAccounts,
		CosmosDB:           credsFlags.cosmosDB,
		ModifyPolicies:     credsFlags.modifyPolicies,
		PrincipalID:        principalID,
		ExportPassword:     credsFlags.exportPassword,
		ExportCerts:        credsFlags.exportCerts,
		OutputDir:          outputDir,
		PollInterval:       credsFlags.pollInterval,
		JobTimeout:         credsFlags.jobTimeout,
	}, clients, logger)

	return runner.Run(ctx)
}
