package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/automation/armautomation"
	"github.com/praetorian-inc/pulsar/internal/helpers"
	"github.com/praetorian-inc/pulsar/pkg/sweep"
)

const automationAccountQuery = `resources
| where type =~ 'Microsoft.Automation/automationAccounts'
| project id, name, resourceGroup, location`

type automationClient struct {
	subscription string
	arg          *helpers.ARGClient
	credentials  *armautomation.CredentialClient
	connections  *armautomation.ConnectionClient
	runbooks     *armautomation.RunbookClient
	drafts       *armautomation.RunbookDraftClient
	jobs         *armautomation.JobClient
}

func newAutomationClient(cred *azidentity.DefaultAzureCredential, subscriptionID string, arg *helpers.ARGClient) (*automationClient, error) {
	credentials, err := armautomation.NewCredentialClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	connections, err := armautomation.NewConnectionClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	runbooks, err := armautomation.NewRunbookClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	drafts, err := armautomation.NewRunbookDraftClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	jobs, err := armautomation.NewJobClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, err
	}
	return &automationClient{
		subscription: subscriptionID,
		arg:          arg,
		credentials:  credentials,
		connections:  connections,
		runbooks:     runbooks,
		drafts:       drafts,
		jobs:         jobs,
	}, nil
}

func (c *automationClient) ListAccounts(ctx context.Context) ([]sweep.AutomationAccount, error) {
	rows, err := c.arg.CollectRows(ctx, automationAccountQuery, c.subscription)
	if err != nil {
		return nil, fmt.Errorf("failed to query automation accounts: %w", err)
	}

	var accounts []sweep.AutomationAccount
	for _, row := range rows {
		name := helpers.SafeGetString(row, "name")
		if name == "" {
			continue
		}
		accounts = append(accounts, sweep.AutomationAccount{
			Name:          name,
			ResourceGroup: helpers.SafeGetString(row, "resourceGroup"),
			Location:      helpers.SafeGetString(row, "location"),
		})
	}
	return accounts, nil
}

func (c *automationClient) ListCredentials(ctx context.Context, acct sweep.AutomationAccount) ([]sweep.StoredCredential, error) {
	var creds []sweep.StoredCredential

	pager := c.credentials.NewListByAutomationAccountPager(acct.ResourceGroup, acct.Name, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list credentials for %s: %w", acct.Name, err)
		}
		for _, item := range page.Value {
			if item.Name == nil {
				continue
			}
			cred := sweep.StoredCredential{Name: *item.Name}
			if item.Properties != nil && item.Properties.UserName != nil {
				cred.Username = *item.Properties.UserName
			}
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

func (c *automationClient) ListConnections(ctx context.Context, acct sweep.AutomationAccount) ([]sweep.Connection, error) {
	var conns []sweep.Connection

	pager := c.connections.NewListByAutomationAccountPager(acct.ResourceGroup, acct.Name, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list connections for %s: %w", acct.Name, err)
		}
		for _, item := range page.Value {
			if item.Name == nil {
				continue
			}
			// The list response omits field definition values, so each
			// connection needs an individual Get.
			resp, err := c.connections.Get(ctx, acct.ResourceGroup, acct.Name, *item.Name, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to get connection %s: %w", *item.Name, err)
			}
			conn := sweep.Connection{Name: *item.Name}
			if resp.Properties != nil {
				fields := resp.Properties.FieldDefinitionValues
				if v, ok := fields["CertificateThumbprint"]; ok && v != nil {
					conn.Thumbprint = *v
				}
				if v, ok := fields["TenantId"]; ok && v != nil {
					conn.TenantID = *v
				}
				if v, ok := fields["ApplicationId"]; ok && v != nil {
					conn.ApplicationID = *v
				}
			}
			conns = append(conns, conn)
		}
	}
	return conns, nil
}

func (c *automationClient) CreateRunbook(ctx context.Context, acct sweep.AutomationAccount, name, body string) error {
	params := armautomation.RunbookCreateOrUpdateParameters{
		Location: to.Ptr(acct.Location),
		Properties: &armautomation.RunbookCreateOrUpdateProperties{
			RunbookType: to.Ptr(armautomation.RunbookTypeEnumPowerShell),
			Draft:       &armautomation.RunbookDraft{},
			LogProgress: to.Ptr(false),
			LogVerbose:  to.Ptr(false),
		},
	}
	if _, err := c.runbooks.CreateOrUpdate(ctx, acct.ResourceGroup, acct.Name, name, params, nil); err != nil {
		return fmt.Errorf("failed to create runbook %s: %w", name, err)
	}

	poller, err := c.drafts.BeginReplaceContent(ctx, acct.ResourceGroup, acct.Name, name, body, nil)
	if err != nil {
		return fmt.Errorf("failed to upload runbook content for %s: %w", name, err)
	}
	if _, err := poller.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("failed to upload runbook content for %s: %w", name, err)
	}

	publish, err := c.runbooks.BeginPublish(ctx, acct.ResourceGroup, acct.Name, name, nil)
	if err != nil {
		return fmt.Errorf("failed to publish runbook %s: %w", name, err)
	}
	if _, err := publish.PollUntilDone(ctx, nil); err != nil {
		return fmt.Errorf("failed to publish runbook %s: %w", name, err)
	}
	return nil
}

func (c *automationClient) StartJob(ctx context.Context, acct sweep.AutomationAccount, runbook, jobName string) error {
	params := armautomation.JobCreateParameters{
		Properties: &armautomation.JobCreateProperties{
			Runbook: &armautomation.RunbookAssociationProperty{Name: to.Ptr(runbook)},
		},
	}
	if _, err := c.jobs.Create(ctx, acct.ResourceGroup, acct.Name, jobName, params, nil); err != nil {
		return fmt.Errorf("failed to start job %s: %w", jobName, err)
	}
	return nil
}

func (c *automationClient) JobStatus(ctx context.Context, acct sweep.AutomationAccount, jobName string) (sweep.JobStatus, error) {
	resp, err := c.jobs.Get(ctx, acct.ResourceGroup, acct.Name, jobName, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get job %s: %w", jobName, err)
	}
	if resp.Properties == nil || resp.Properties.Status == nil {
		return sweep.JobNew, nil
	}
	return sweep.JobStatus(*resp.Properties.Status), nil
}

func (c *automationClient) JobOutput(ctx context.Context, acct sweep.AutomationAccount, jobName string) (string, error) {
	resp, err := c.jobs.GetOutput(ctx, acct.ResourceGroup, acct.Name, jobName, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get output for job %s: %w", jobName, err)
	}
	if resp.Value == nil {
		return "", nil
	}
	return *resp.Value, nil
}

func (c *automationClient) DeleteRunbook(ctx context.Context, acct sweep.AutomationAccount, name string) error {
	if _, err := c.runbooks.Delete(ctx, acct.ResourceGroup, acct.Name, name, nil); err != nil {
		return fmt.Errorf("failed to delete runbook %s: %w", name, err)
	}
	return nil
}
