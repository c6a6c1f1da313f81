package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
)

type graphClient struct {
	client *msgraphsdk.GraphServiceClient
}

func newGraphClient(cred *azidentity.DefaultAzureCredential) (*graphClient, error) {
	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, []string{"https://graph.microsoft.com/.default"})
	if err != nil {
		return nil, err
	}
	return &graphClient{client: client}, nil
}

// CurrentPrincipalID resolves the signed-in principal's directory
// object ID. Only user principals are resolvable through /me; service
// principals must pass their object ID explicitly.
func (c *graphClient) CurrentPrincipalID(ctx context.Context) (string, error) {
	me, err := c.client.Me().Get(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to resolve current principal: %w", err)
	}
	id := me.GetId()
	if id == nil {
		return "", fmt.Errorf("graph returned no principal id")
	}
	return *id, nil
}
