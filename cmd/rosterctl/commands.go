package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teamsite/roster-api/internal/app/adminform"
	"github.com/teamsite/roster-api/internal/app/roster"
	"github.com/teamsite/roster-api/internal/domain"
)

func listCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every member in storage order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ms, err := a.api.ListMembers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tTITLE\tBATCH\tFACULTY")
			for _, m := range ms {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Type, m.ECTitle, m.Batch, m.Faculty)
			}
			return tw.Flush()
		},
	}
}

func rosterCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "Show the roster as the public page groups it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := roster.NewDisplay(a.api).Load(cmd.Context())
			if err != nil {
				return err
			}
			printView(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func printView(w io.Writer, v roster.View) {
	fmt.Fprintln(w, "Executive Committee")
	if len(v.Executive) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, c := range v.Executive {
		marker := " "
		if c.Featured {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s, %s (%s, %s)\n", marker, c.Member.Name, c.Member.ECTitle, c.Member.Faculty, c.Member.Batch)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Team")
	if len(v.Team) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, c := range v.Team {
		fmt.Fprintf(w, "  %s (%s, %s)\n", c.Member.Name, c.Member.Faculty, c.Member.Batch)
	}
}

type memberFlags struct {
	name, batch, faculty, memberType, title, imageURL, imagePath string
}

func (f *memberFlags) register(cmd *cobra.Command, defaultType string) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "full name")
	fs.StringVar(&f.batch, "batch", "", "batch, for example 2021-2025")
	fs.StringVar(&f.faculty, "faculty", "", "faculty or department")
	fs.StringVar(&f.memberType, "type", defaultType, "member type: team or ec")
	fs.StringVar(&f.title, "title", "", "executive committee title, required when --type=ec")
	fs.StringVar(&f.imageURL, "image-url", "", "already hosted portrait URL")
	fs.StringVar(&f.imagePath, "image", "", "portrait file to upload (image, under 5MB)")
}

// apply copies the flags the user set onto d.
func (f *memberFlags) apply(cmd *cobra.Command, d *adminform.Draft) {
	changed := cmd.Flags().Changed
	if changed("name") {
		d.Name = f.name
	}
	if changed("batch") {
		d.Batch = f.batch
	}
	if changed("faculty") {
		d.Faculty = f.faculty
	}
	if changed("type") || d.MemberType == "" {
		d.MemberType = domain.MemberType(strings.ToLower(strings.TrimSpace(f.memberType)))
	}
	if changed("title") {
		d.ECTitle = f.title
	}
	if changed("image-url") {
		d.ImageURL = f.imageURL
		d.PreviewURL = f.imageURL
	}
}

func titleHelp() string {
	return "Suggested titles: " + strings.Join(domain.SuggestedECTitles, ", ") + ". Any other title is accepted."
}

func addCommand(a *app) *cobra.Command {
	var f memberFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member",
		Long:  "Add a member to the roster.\n\n" + titleHelp(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			form, closeUploader := a.newForm()
			defer closeUploader()
			form.SetDraft(func(d *adminform.Draft) { f.apply(cmd, d) })
			return submit(cmd, form, f.imagePath)
		},
	}
	f.register(cmd, string(domain.MemberTypeTeam))
	return cmd
}

func editCommand(a *app) *cobra.Command {
	var f memberFlags
	cmd := &cobra.Command{
		Use:   "edit <member-id>",
		Short: "Edit a member; only the flags given are changed",
		Long:  "Edit a member. Fields without a flag keep their current value.\n\n" + titleHelp(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseMemberID(args[0])
			if err != nil {
				return err
			}
			current, err := a.api.GetMember(cmd.Context(), id)
			if err != nil {
				return err
			}
			form, closeUploader := a.newForm()
			defer closeUploader()
			form.StartEdit(current)
			form.SetDraft(func(d *adminform.Draft) { f.apply(cmd, d) })
			return submit(cmd, form, f.imagePath)
		},
	}
	f.register(cmd, string(domain.MemberTypeTeam))
	return cmd
}

func deleteCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <member-id>",
		Short: "Delete a member after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseMemberID(args[0])
			if err != nil {
				return err
			}
			form, closeUploader := a.newForm()
			defer closeUploader()

			confirm := func(m domain.Member) bool {
				if yes {
					return true
				}
				return askYesNo(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Are you sure you want to delete %s?", m.Name))
			}
			deleted, err := form.Delete(cmd.Context(), id, confirm)
			if err != nil {
				return formError(form, err)
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), form.State().Message.Text)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

func (a *app) newForm() (*adminform.Controller, func()) {
	up := &lazyUploader{open: a.openUploader}
	return adminform.New(a.api, up, adminform.WithLogger(a.log)), up.Close
}

func submit(cmd *cobra.Command, form *adminform.Controller, imagePath string) error {
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return err
		}
		if err := form.SelectImage(adminform.ImageFile{Filename: filepath.Base(imagePath), Data: data}); err != nil {
			return err
		}
	}
	saved, err := form.Submit(cmd.Context())
	if err != nil {
		return formError(form, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", form.State().Message.Text, saved.ID)
	return nil
}

// formError prefers the message the form shows to the user over the raw error.
func formError(form *adminform.Controller, err error) error {
	msg := form.State().Message
	if msg.Kind == adminform.MessageError && msg.Text != "" {
		return fmt.Errorf("%s: %w", msg.Text, err)
	}
	var ve *adminform.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("missing or invalid: %s", strings.Join(ve.Fields.Fields(), ", "))
	}
	return err
}

func askYesNo(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
