package command

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"health-record-vault/internal/usecase"
	"health-record-vault/pkg/integrity"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// recordDraft is the subset of a record an issuer signs before submitting.
type recordDraft struct {
	PatientUUID  string `json:"patient_uuid"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	RecordType   string `json:"record_type"`
	Facility     string `json:"facility"`
	Notes        string `json:"notes"`
	Diagnosis    string `json:"diagnosis"`
	Treatment    string `json:"treatment"`
	PrivateNotes string `json:"private_notes"`
}

func (d recordDraft) fields() (integrity.Fields, error) {
	patientUUID, err := uuid.Parse(strings.TrimSpace(d.PatientUUID))
	if err != nil {
		return integrity.Fields{}, fmt.Errorf("patient_uuid: %w", err)
	}
	date, err := usecase.ParseRecordDate(d.Date)
	if err != nil {
		return integrity.Fields{}, fmt.Errorf("date: %w", err)
	}
	if strings.TrimSpace(d.Facility) == "" {
		return integrity.Fields{}, fmt.Errorf("facility is required for signing")
	}

	return integrity.Fields{
		PatientUUID: patientUUID,
		Title:       strings.TrimSpace(d.Title),
		Date:        date,
		RecordType:  strings.TrimSpace(d.RecordType),
		Content: integrity.Content{
			Notes:        d.Notes,
			Diagnosis:    d.Diagnosis,
			Treatment:    d.Treatment,
			PrivateNotes: d.PrivateNotes,
		},
		Facility: strings.TrimSpace(d.Facility),
	}, nil
}

func newSignRecordCommand() *cobra.Command {
	var (
		draftPath string
		keyPath   string
	)

	cmd := &cobra.Command{
		Use:   "sign-record",
		Short: "Sign a record draft offline with an issuer private key",
		Long: `sign-record computes the canonical hash of a record draft and signs it
with the issuer's private key. Pass the printed signature as "signature"
when creating the record. The facility must match the one submitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(draftPath)
			if err != nil {
				return fmt.Errorf("failed to read draft: %w", err)
			}
			var draft recordDraft
			if err := json.Unmarshal(raw, &draft); err != nil {
				return fmt.Errorf("failed to parse draft: %w", err)
			}
			fields, err := draft.fields()
			if err != nil {
				return err
			}

			key, err := os.ReadFile(keyPath)
			if err != nil {
				return fmt.Errorf("failed to read private key: %w", err)
			}

			hash, err := integrity.CanonicalHash(fields)
			if err != nil {
				return err
			}
			signature, err := integrity.Sign(fields, string(key))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hash:      %s\n", hash)
			fmt.Fprintf(out, "signature: %s\n", signature)
			return nil
		},
	}

	cmd.Flags().StringVar(&draftPath, "draft", "", "path to the record draft JSON")
	cmd.Flags().StringVar(&keyPath, "key", "", "path to the PEM encoded private key")
	_ = cmd.MarkFlagRequired("draft")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}
