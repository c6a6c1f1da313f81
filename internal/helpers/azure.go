package helpers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/praetorian-inc/pulsar/internal/logs"
	"github.com/praetorian-inc/pulsar/internal/message"
)

// SubscriptionInfo is the id/name pair shown during interactive
// selection.
type SubscriptionInfo struct {
	ID   string
	Name string
}

// GetAzureCredentials returns Azure credentials using DefaultAzureCredential
func GetAzureCredentials() (*azidentity.DefaultAzureCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get Azure credentials: %v", err)
	}
	return cred, nil
}

// ListSubscriptions returns all subscriptions accessible to the caller.
func ListSubscriptions(ctx context.Context, cred *azidentity.DefaultAzureCredential) ([]SubscriptionInfo, error) {
	logger := logs.ComponentLogger("subscriptions")

	subsClient, err := armsubscriptions.NewClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriptions client: %v", err)
	}

	var subs []SubscriptionInfo
	pager := subsClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list subscriptions: %v", err)
		}

		for _, sub := range page.Value {
			if sub.SubscriptionID == nil {
				continue
			}
			info := SubscriptionInfo{ID: *sub.SubscriptionID, Name: "Unknown"}
			if sub.DisplayName != nil {
				info.Name = *sub.DisplayName
			}
			logger.Debug("found subscription", "id", info.ID, "name", info.Name)
			subs = append(subs, info)
		}
	}

	if len(subs) == 0 {
		return nil, fmt.Errorf("no accessible subscriptions found")
	}
	return subs, nil
}

// SelectSubscriptions prompts for a multi-select over the accessible
// subscriptions and returns the chosen ids. The caller loops over the
// selection; there is no re-entrant invocation.
func SelectSubscriptions(in io.Reader, subs []SubscriptionInfo) ([]string, error) {
	message.Info("Select subscriptions (comma-separated indices, or 'all'):")
	for i, sub := range subs {
		message.Info("  %d) %s (%s)", i+1, sub.Name, sub.ID)
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("reading selection: %v", err)
	}
	line = strings.TrimSpace(line)

	if strings.EqualFold(line, "all") {
		ids := make([]string, len(subs))
		for i, sub := range subs {
			ids[i] = sub.ID
		}
		return ids, nil
	}

	var ids []string
	for _, tok := range strings.Split(line, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		idx, err := strconv.Atoi(tok)
		if err != nil || idx < 1 || idx > len(subs) {
			return nil, fmt.Errorf("invalid selection %q", tok)
		}
		ids = append(ids, subs[idx-1].ID)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no subscriptions selected")
	}
	return ids, nil
}

// CountRoleAssignments returns how many role assignments the principal
// holds at subscription scope, used as a pre-flight check before
// attempting access policy self-modification.
func CountRoleAssignments(ctx context.Context, cred *azidentity.DefaultAzureCredential, subscriptionID, principalID string) (int, error) {
	client, err := armauthorization.NewRoleAssignmentsClient(subscriptionID, cred, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create role assignments client: %v", err)
	}

	scope := "/subscriptions/" + subscriptionID
	pager := client.NewListForScopePager(scope, &armauthorization.RoleAssignmentsClientListForScopeOptions{
		Filter: to.Ptr(fmt.Sprintf("principalId eq '%s'", principalID)),
	})

	count := 0
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return count, fmt.Errorf("failed to list role assignments: %v", err)
		}
		count += len(page.Value)
	}
	return count, nil
}

// ExtractResourceGroup pulls the resource group segment out of a
// resource id.
func ExtractResourceGroup(resourceID string) string {
	parts := strings.Split(resourceID, "/")
	for i, part := range parts {
		if strings.EqualFold(part, "resourceGroups") && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// SafeGetString extracts a string field from a loosely-typed response
// row.
func SafeGetString(item map[string]interface{}, key string) string {
	if value, ok := item[key].(string); ok {
		return value
	}
	return ""
}

// SafeGetBool extracts a bool field from a loosely-typed response row.
func SafeGetBool(item map[string]interface{}, key string) bool {
	if value, ok := item[key].(bool); ok {
		return value
	}
	return false
}
