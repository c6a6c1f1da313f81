package sweep

import (
	"context"
	"testing"

	"github.com/praetorian-inc/pulsar/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePublishProfile = `<publishData>
  <publishProfile profileName="shop-api - Web Deploy" publishMethod="MSDeploy"
    publishUrl="shop-api.scm.azurewebsites.net:443" userName="$shop-api" userPWD="deploy-pw">
    <databases>
      <add name="orders" connectionString="Server=db;User=sa;Password=dbpw" type="SQLServer" />
    </databases>
  </publishProfile>
  <publishProfile profileName="shop-api - FTP" publishMethod="FTP"
    publishUrl="ftp://waws-prod.ftp.azurewebsites.windows.net/site/wwwroot" userName="shop-api\$shop-api" userPWD="ftp-pw">
  </publishProfile>
</publishData>`

func TestCollectAppServices(t *testing.T) {
	webapps := &fakeWebApps{
		apps:     []WebApp{{Name: "shop-api", ResourceGroup: "rg-1"}},
		profiles: map[string]string{"shop-api": samplePublishProfile},
		connStrings: map[string][]ConnectionString{
			"shop-api": {
				{Name: "main-db", Value: "Server=tcp:db;Password=cs-pw", Type: "SQLAzure"},
				{Name: "untyped", Value: "ignored"},
			},
		},
	}

	r := newTestRunner(Config{Subscription: "sub-1", AppServices: true}, Clients{WebApps: webapps})
	require.NoError(t, r.collectAppServices(context.Background()))

	records := r.Records()
	require.Len(t, records, 4) // 2 profiles + 1 embedded db + 1 typed connection string

	assert.Equal(t, types.KindAppServiceConfig, records[0].Kind)
	assert.Equal(t, "shop-api - Web Deploy", records[0].Name)
	assert.Equal(t, "$shop-api", records[0].Username)
	assert.Equal(t, "deploy-pw", records[0].Value)
	assert.Equal(t, "shop-api.scm.azurewebsites.net:443", records[0].PublishURL)
	assert.Equal(t, "MSDeploy", records[0].ContentType)
	assert.Equal(t, "shop-api", records[0].SourceContainer)

	assert.Equal(t, "orders", records[1].Name)
	assert.Equal(t, "Server=db;User=sa;Password=dbpw", records[1].Value)
	assert.Equal(t, "SQLServer", records[1].ContentType)

	assert.Equal(t, "shop-api - FTP", records[2].Name)
	assert.Equal(t, "ftp-pw", records[2].Value)

	assert.Equal(t, "main-db", records[3].Name)
	assert.Equal(t, "Server=tcp:db;Password=cs-pw", records[3].Value)
	assert.Equal(t, "SQLAzure", records[3].ContentType)
}

func TestUnreadableAppServiceIsSkipped(t *testing.T) {
	webapps := &fakeWebApps{
		apps: []WebApp{
			{Name: "denied-app", ResourceGroup: "rg-1"}, // no profile -> 403
			{Name: "shop-api", ResourceGroup: "rg-1"},
		},
		profiles: map[string]string{"shop-api": samplePublishProfile},
	}

	r := newTestRunner(Config{Subscription: "sub-1", AppServices: true}, Clients{WebApps: webapps})
	require.NoError(t, r.collectAppServices(context.Background()))

	records := r.Records()
	require.NotEmpty(t, records)
	for _, rec := range records {
		assert.Equal(t, "shop-api", rec.SourceContainer)
	}
}
