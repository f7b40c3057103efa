package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	auditmodels "consulthub/internal/audit/models"
	"consulthub/internal/audit/writer"
	identitymodels "consulthub/internal/identity/models"
	id "consulthub/pkg/domain"
	"consulthub/pkg/requestcontext"
)

type bootstrapOperatorFlags struct {
	subject string
	name    string
	email   string
}

// newBootstrapOperatorCommand provisions the first platform superadmin.
// Later operators are created the same way; there is no HTTP route for it.
func newBootstrapOperatorCommand(a *app) *cobra.Command {
	var flags bootstrapOperatorFlags
	cmd := &cobra.Command{
		Use:   "bootstrap-operator",
		Short: "Create a platform superadmin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(cmd.Context(), a)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck // best-effort on exit

			var opts []writer.Option
			if store.outbox != nil {
				opts = append(opts, writer.WithOutbox(store.outbox))
			}
			operator, err := bootstrapOperator(cmd.Context(), store, writer.New(store.audits, append(opts, writer.WithLogger(a.logger))...), flags)
			if err != nil {
				return err
			}
			a.logger.Info("platform operator created",
				"user_id", operator.ID,
				"subject", operator.SubjectID,
			)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), operator.ID.String())
			return err
		},
	}
	cmd.Flags().StringVar(&flags.subject, "subject", "", "identity provider subject of the operator")
	cmd.Flags().StringVar(&flags.name, "name", "", "display name")
	cmd.Flags().StringVar(&flags.email, "email", "", "contact email")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func bootstrapOperator(ctx context.Context, store *storage, audit *writer.Writer, flags bootstrapOperatorFlags) (*identitymodels.ConsultancyUser, error) {
	subject, err := id.ParseSubjectID(flags.subject)
	if err != nil {
		return nil, err
	}
	ctx = requestcontext.WithTime(ctx, time.Now())
	ctx = requestcontext.WithTenantScope(ctx, requestcontext.PlatformScope())

	operator, err := identitymodels.NewPlatformSuperadmin(id.ConsultancyUserID(uuid.New()), subject, flags.name, flags.email, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = store.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := store.consultancyUsers.Create(ctx, operator); err != nil {
			return fmt.Errorf("create operator: %w", err)
		}
		_, err := audit.Record(ctx, writer.Entry{
			Action:      auditmodels.ActionInsert,
			Entity:      "consultancy_users",
			RecordID:    operator.ID.String(),
			Global:      true,
			After:       operator,
			Description: "platform operator bootstrapped",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return operator, nil
}
