package shell

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/conversational-console/internal/model"
	"github.com/capitalize-ai/conversational-console/internal/upload"
)

func (s *Shell) cmdNew() {
	s.chat.NewChat()
	fmt.Fprintln(s.out, "new chat; type a message to start")
}

func (s *Shell) cmdList() {
	if !s.fetchConversations() {
		return
	}
	if len(s.conversations) == 0 {
		fmt.Fprintln(s.out, "no conversations yet")
		return
	}
	activeID, _ := s.chat.Active()
	for i, conv := range s.conversations {
		marker := " "
		if conv.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s %2d. %s\n", marker, i+1, conv.Title)
	}
}

func (s *Shell) cmdOpen(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: open N")
		return
	}
	if len(s.conversations) == 0 && !s.fetchConversations() {
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > len(s.conversations) {
		fmt.Fprintf(s.out, "no such conversation: %s\n", args[0])
		return
	}
	conv := s.conversations[idx-1]

	ctx, cancel := s.requestCtx()
	defer cancel()

	if err := s.chat.Select(ctx, conv); err != nil {
		s.fail(err, "failed to load conversation")
		return
	}
	s.cmdShow()
}

func (s *Shell) cmdShow() {
	entries := s.chat.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "(empty)")
		return
	}
	for _, entry := range entries {
		s.renderEntry(entry.Role, entry.Content, string(entry.State), entry.Sources)
	}
}

func (s *Shell) cmdSend(content string) {
	ctx, cancel := s.sendCtx()
	defer cancel()

	reply, err := s.chat.Send(ctx, content)
	if err != nil {
		s.fail(err, "failed to send message")
		return
	}
	if reply != nil {
		s.renderEntry(reply.Role, reply.Content, "", reply.Sources)
	}
}

func (s *Shell) cmdRename(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "usage: rename TITLE...")
		return
	}

	ctx, cancel := s.requestCtx()
	defer cancel()

	if err := s.chat.Rename(ctx, strings.Join(args, " ")); err != nil {
		s.fail(err, "failed to rename conversation")
		return
	}
	_, title := s.chat.Active()
	fmt.Fprintf(s.out, "renamed to %q\n", title)
}

func (s *Shell) cmdDelete() {
	_, title := s.chat.Active()
	if title == "" {
		fmt.Fprintln(s.out, "no open conversation")
		return
	}
	if !s.confirm(fmt.Sprintf("delete conversation %q?", title)) {
		fmt.Fprintln(s.out, "cancelled")
		return
	}

	ctx, cancel := s.requestCtx()
	defer cancel()

	if err := s.chat.Delete(ctx); err != nil {
		s.fail(err, "failed to delete conversation")
		return
	}
	fmt.Fprintln(s.out, "deleted; back to a new chat")
}

func (s *Shell) cmdDocs() {
	if !s.fetchDocuments() {
		return
	}
	if len(s.documents) == 0 {
		fmt.Fprintln(s.out, "no documents")
		return
	}
	for i, doc := range s.documents {
		var flags []string
		if doc.CanEdit {
			flags = append(flags, "edit")
		}
		if doc.CanDelete {
			flags = append(flags, "del")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = " [" + strings.Join(flags, ",") + "]"
		}
		fmt.Fprintf(s.out, "%2d. %s (%s)%s\n", i+1, docTitle(doc), doc.OwnerType, suffix)
	}
	fmt.Fprintf(s.out, "%d document(s)\n", len(s.documents))
}

func (s *Shell) cmdUpload(args []string) {
	shared := len(args) == 2 && args[1] == "shared" && s.session.IsAdmin()
	if len(args) != 1 && !shared {
		if s.session.IsAdmin() {
			fmt.Fprintln(s.out, "usage: upload PATH [shared]")
		} else {
			fmt.Fprintln(s.out, "usage: upload PATH")
		}
		return
	}

	user := s.session.Current()
	file, err := upload.Read(args[0], user.Email)
	if err != nil {
		s.fail(err, "failed to read file")
		return
	}

	req := &model.CreateDocumentRequest{
		Title:    file.Title,
		Content:  file.Content,
		Metadata: file.Metadata,
	}

	ctx, cancel := s.requestCtx()
	defer cancel()

	var doc *model.Document
	if shared {
		doc, err = s.api.CreateSharedDocument(ctx, req)
	} else {
		doc, err = s.api.CreateDocument(ctx, req)
	}
	if err != nil {
		s.fail(err, "failed to upload document")
		return
	}

	s.logger.Info("document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("owner_type", string(doc.OwnerType)),
	)
	fmt.Fprintf(s.out, "uploaded %q to the %s library\n", docTitle(*doc), doc.OwnerType)
	s.cmdDocs()
}

func (s *Shell) cmdDocVisibility(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: docvis N")
		return
	}
	if len(s.documents) == 0 && !s.fetchDocuments() {
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > len(s.documents) {
		fmt.Fprintf(s.out, "no such document: %s\n", args[0])
		return
	}
	doc := s.documents[idx-1]
	if !doc.CanEdit {
		fmt.Fprintln(s.out, "edit is not available for this document")
		return
	}

	visible := !doc.IsVisible

	ctx, cancel := s.requestCtx()
	defer cancel()

	updated, err := s.api.UpdateDocument(ctx, doc.ID, &model.UpdateDocumentRequest{IsVisible: &visible})
	if err != nil {
		s.fail(err, "failed to update document")
		return
	}
	state := "hidden"
	if updated.IsVisible {
		state = "visible"
	}
	fmt.Fprintf(s.out, "document %q is now %s\n", docTitle(*updated), state)
	s.cmdDocs()
}

func (s *Shell) cmdDocDelete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: docdel N")
		return
	}
	if len(s.documents) == 0 && !s.fetchDocuments() {
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > len(s.documents) {
		fmt.Fprintf(s.out, "no such document: %s\n", args[0])
		return
	}
	doc := s.documents[idx-1]
	if !doc.CanDelete {
		// The backend said this caller gets no delete action; there is
		// nothing to offer.
		fmt.Fprintln(s.out, "delete is not available for this document")
		return
	}
	if !s.confirm(fmt.Sprintf("delete document %q?", docTitle(doc))) {
		fmt.Fprintln(s.out, "cancelled")
		return
	}

	ctx, cancel := s.requestCtx()
	defer cancel()

	if err := s.api.DeleteDocument(ctx, doc.ID); err != nil {
		s.fail(err, "failed to delete document")
		return
	}
	fmt.Fprintln(s.out, "document deleted")
	s.cmdDocs()
}

func (s *Shell) cmdUsers() {
	ctx, cancel := s.requestCtx()
	defer cancel()

	users, err := s.api.ListUsers(ctx)
	if err != nil {
		s.fail(err, "failed to list users")
		return
	}
	s.users = users
	for i, user := range users {
		fmt.Fprintf(s.out, "%2d. %s <%s> role=%s\n", i+1, user.Name, user.Email, user.Role)
	}
}

func (s *Shell) cmdUserAdd(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "usage: useradd EMAIL NAME... [admin]")
		return
	}
	email := args[0]
	role := model.UserRoleUser
	nameArgs := args[1:]
	if nameArgs[len(nameArgs)-1] == "admin" && len(nameArgs) > 1 {
		role = model.UserRoleAdmin
		nameArgs = nameArgs[:len(nameArgs)-1]
	}

	password, err := s.readPassword("password: ")
	if err != nil || password == "" {
		fmt.Fprintln(s.out, "password is required")
		return
	}

	ctx, cancel := s.requestCtx()
	defer cancel()

	user, err := s.api.CreateUser(ctx, &model.CreateUserRequest{
		Email:        email,
		Name:         strings.Join(nameArgs, " "),
		PasswordHash: password,
		Role:         role,
	})
	if err != nil {
		s.fail(err, "failed to create user")
		return
	}
	fmt.Fprintf(s.out, "created %s <%s>\n", user.Name, user.Email)
	s.cmdUsers()
}

func (s *Shell) cmdUserMod(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "usage: usermod N ROLE")
		return
	}
	if len(s.users) == 0 {
		fmt.Fprintln(s.out, `run "users" first`)
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > len(s.users) {
		fmt.Fprintf(s.out, "no such user: %s\n", args[0])
		return
	}
	role := model.UserRole(args[1])
	if role != model.UserRoleUser && role != model.UserRoleAdmin {
		fmt.Fprintln(s.out, "role must be user or admin")
		return
	}
	user := s.users[idx-1]

	ctx, cancel := s.requestCtx()
	defer cancel()

	updated, err := s.api.UpdateUser(ctx, user.ID, &model.UpdateUserRequest{Role: role})
	if err != nil {
		s.fail(err, "failed to update user")
		return
	}
	fmt.Fprintf(s.out, "updated %s role=%s\n", updated.Email, updated.Role)
	s.cmdUsers()
}

func (s *Shell) cmdUserDelete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: userdel N")
		return
	}
	if len(s.users) == 0 {
		fmt.Fprintln(s.out, `run "users" first`)
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > len(s.users) {
		fmt.Fprintf(s.out, "no such user: %s\n", args[0])
		return
	}
	user := s.users[idx-1]
	if !s.confirm(fmt.Sprintf("delete user %s?", user.Email)) {
		fmt.Fprintln(s.out, "cancelled")
		return
	}

	ctx, cancel := s.requestCtx()
	defer cancel()

	if err := s.api.DeleteUser(ctx, user.ID); err != nil {
		s.fail(err, "failed to delete user")
		return
	}
	fmt.Fprintln(s.out, "user deleted")
	s.cmdUsers()
}

// fetchConversations re-fetches the sidebar list in full.
func (s *Shell) fetchConversations() bool {
	ctx, cancel := s.requestCtx()
	defer cancel()

	conversations, err := s.api.ListConversations(ctx)
	if err != nil {
		s.fail(err, "failed to list conversations")
		return false
	}
	s.conversations = conversations
	return true
}

// refreshConversations is the bus-driven variant: silent on failure.
func (s *Shell) refreshConversations() {
	if !s.session.Authenticated() {
		return
	}
	ctx, cancel := s.requestCtx()
	defer cancel()

	conversations, err := s.api.ListConversations(ctx)
	if err != nil {
		s.logger.Warn("sidebar refresh failed", zap.Error(err))
		return
	}
	s.conversations = conversations
}

func (s *Shell) fetchDocuments() bool {
	ctx, cancel := s.requestCtx()
	defer cancel()

	documents, err := s.api.ListDocuments(ctx)
	if err != nil {
		s.fail(err, "failed to list documents")
		return false
	}
	s.documents = documents
	return true
}

func (s *Shell) renderEntry(role model.Role, content, state string, sources []model.Source) {
	label := "you"
	if role == model.RoleAssistant {
		label = "assistant"
	}
	switch state {
	case "pending":
		fmt.Fprintf(s.out, "%s> %s (sending…)\n", label, content)
	case "failed":
		fmt.Fprintf(s.out, "%s> %s [failed]\n", label, content)
	default:
		fmt.Fprintf(s.out, "%s> %s\n", label, content)
	}
	for i, src := range sources {
		excerpt := src.Content
		if runes := []rune(excerpt); len(runes) > 80 {
			excerpt = string(runes[:80]) + "…"
		}
		fmt.Fprintf(s.out, "    [%d] %s (%s): %s\n", i+1, src.DocumentID, src.OwnerType, excerpt)
	}
}

func docTitle(doc model.Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	return doc.ID
}
