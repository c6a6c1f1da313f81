package sweep

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"

	"github.com/praetorian-inc/pulsar/internal/message"
	"github.com/praetorian-inc/pulsar/pkg/types"
)

// publishData is the deploy-profile document returned by the app
// service publishing profile endpoint.
type publishData struct {
	XMLName  xml.Name         `xml:"publishData"`
	Profiles []publishProfile `xml:"publishProfile"`
}

type publishProfile struct {
	ProfileName   string             `xml:"profileName,attr"`
	PublishMethod string             `xml:"publishMethod,attr"`
	PublishURL    string             `xml:"publishUrl,attr"`
	UserName      string             `xml:"userName,attr"`
	UserPWD       string             `xml:"userPWD,attr"`
	Databases     []profileDatabases `xml:"databases>add"`
}

type profileDatabases struct {
	Name             string `xml:"name,attr"`
	ConnectionString string `xml:"connectionString,attr"`
	Type             string `xml:"type,attr"`
}

// collectAppServices extracts deploy credentials from each site's
// publishing profile and separately pulls configured connection
// strings.
func (r *Runner) collectAppServices(ctx context.Context) error {
	apps, err := r.c.WebApps.ListWebApps(ctx)
	if err != nil {
		return fmt.Errorf("listing app services: %w", Classify(err))
	}
	message.Info("Found %d app services in subscription %s", len(apps), r.cfg.Subscription)

	for _, app := range apps {
		if err := r.readAppService(ctx, app); err != nil {
			message.Warning("Skipping app service %s: %v", app.Name, err)
			r.logger.Warn("app service read failed",
				slog.String("app", app.Name),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (r *Runner) readAppService(ctx context.Context, app WebApp) error {
	profileXML, err := r.c.WebApps.PublishingProfileXML(ctx, app)
	if err != nil {
		return fmt.Errorf("fetching publishing profile: %w", Classify(err))
	}

	var doc publishData
	if err := xml.Unmarshal([]byte(profileXML), &doc); err != nil {
		return fmt.Errorf("parsing publishing profile: %w", err)
	}

	for _, profile := range doc.Profiles {
		r.sink.Append(types.CredentialRecord{
			Kind:            types.KindAppServiceConfig,
			Name:            profile.ProfileName,
			Username:        profile.UserName,
			Value:           profile.UserPWD,
			PublishURL:      profile.PublishURL,
			ContentType:     profile.PublishMethod,
			SourceContainer: app.Name,
			Subscription:    r.cfg.Subscription,
		})

		for _, db := range profile.Databases {
			r.sink.Append(types.CredentialRecord{
				Kind:            types.KindAppServiceConfig,
				Name:            db.Name,
				Value:           db.ConnectionString,
				ContentType:     db.Type,
				SourceContainer: app.Name,
				Subscription:    r.cfg.Subscription,
			})
		}
	}

	// Connection strings configured on the site itself come back from a
	// separate config list call; every entry declares its type.
	connStrings, err := r.c.WebApps.ListConnectionStrings(ctx, app)
	if err != nil {
		return fmt.Errorf("listing connection strings: %w", Classify(err))
	}
	for _, cs := range connStrings {
		if cs.Type == "" {
			continue
		}
		r.sink.Append(types.CredentialRecord{
			Kind:            types.KindAppServiceConfig,
			Name:            cs.Name,
			Value:           cs.Value,
			ContentType:     cs.Type,
			SourceContainer: app.Name,
			Subscription:    r.cfg.Subscription,
		})
	}

	return nil
}
