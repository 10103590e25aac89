package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/UkralStul/blog-service/internal/dataloader"
	"github.com/UkralStul/blog-service/internal/domain"
	"github.com/UkralStul/blog-service/internal/markdown"
)

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	posts, err := s.content.ListPosts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index.html", &viewData{Posts: posts})
}

func (s *Server) about(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about.html", nil)
}

func (s *Server) contact(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "contact.html", nil)
}

// renderPost показывает пост, его комментарии и форму комментария.
func (s *Server) renderPost(w http.ResponseWriter, r *http.Request, status int, post *domain.Post, form *Form) {
	comments, err := s.content.Comments(r.Context(), post.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := dataloader.AttachAuthors(r.Context(), comments); err != nil {
		s.fail(w, r, err)
		return
	}
	body, err := markdown.Render(post.Body)
	if err != nil {
		s.fail(w, r, fmt.Errorf("render post %d: %w", post.ID, err))
		return
	}
	s.render(w, r, status, "post.html", &viewData{
		Post:     post,
		Body:     body,
		Comments: comments,
		Form:     form,
	})
}

func (s *Server) showPost(w http.ResponseWriter, r *http.Request) {
	s.renderPost(w, r, http.StatusOK, postFrom(r.Context()), newForm(nil))
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	post := postFrom(r.Context())
	user, ok := s.auth.CurrentIdentity(r.Context())
	if !ok {
		s.redirectWithFlash(w, r, "/login", "error", "You need to login or register to make comment")
		return
	}

	if err := r.ParseForm(); err != nil {
		s.fail(w, r, NewStatusError(err, http.StatusBadRequest))
		return
	}
	form := newForm(r.PostForm)
	validateComment(form)
	if !form.Valid() {
		s.renderPost(w, r, http.StatusBadRequest, post, form)
		return
	}

	if _, err := s.content.AddComment(r.Context(), post.ID, form.Get("comment_text"), user); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/post/%d", post.ID), http.StatusSeeOther)
}

func (s *Server) newPostPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "make-post.html", &viewData{
		Form:    newForm(nil),
		Heading: "New Post",
		Action:  "/new-post",
	})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, NewStatusError(err, http.StatusBadRequest))
		return
	}
	form := newForm(r.PostForm)
	page := &viewData{Form: form, Heading: "New Post", Action: "/new-post"}
	validatePost(form)
	if !form.Valid() {
		s.render(w, r, http.StatusBadRequest, "make-post.html", page)
		return
	}

	user, _ := s.auth.CurrentIdentity(r.Context())
	_, err := s.content.CreatePost(r.Context(), postFields(form), user)
	if errors.Is(err, domain.ErrDuplicateTitle) {
		form.addError("title", "A post with this title already exists.")
		s.render(w, r, http.StatusBadRequest, "make-post.html", page)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) editPostPage(w http.ResponseWriter, r *http.Request) {
	post := postFrom(r.Context())
	form := newForm(nil)
	form.Values.Set("title", post.Title)
	form.Values.Set("subtitle", post.Subtitle)
	form.Values.Set("img_url", post.ImgURL)
	form.Values.Set("body", post.Body)
	s.render(w, r, http.StatusOK, "make-post.html", &viewData{
		Post:    post,
		Form:    form,
		Heading: "Edit Post",
		Action:  fmt.Sprintf("/edit-post/%d", post.ID),
	})
}

func (s *Server) editPost(w http.ResponseWriter, r *http.Request) {
	post := postFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, NewStatusError(err, http.StatusBadRequest))
		return
	}
	form := newForm(r.PostForm)
	page := &viewData{Post: post, Form: form, Heading: "Edit Post", Action: fmt.Sprintf("/edit-post/%d", post.ID)}
	validatePost(form)
	if !form.Valid() {
		s.render(w, r, http.StatusBadRequest, "make-post.html", page)
		return
	}

	fields := postFields(form)
	user, _ := s.auth.CurrentIdentity(r.Context())
	_, err := s.content.UpdatePost(r.Context(), post.ID, domain.PostPatch{
		Title:    &fields.Title,
		Subtitle: &fields.Subtitle,
		Body:     &fields.Body,
		ImgURL:   &fields.ImgURL,
	}, user)
	if errors.Is(err, domain.ErrDuplicateTitle) {
		form.addError("title", "A post with this title already exists.")
		s.render(w, r, http.StatusBadRequest, "make-post.html", page)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/post/%d", post.ID), http.StatusSeeOther)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePostID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	user, _ := s.auth.CurrentIdentity(r.Context())
	if err := s.content.DeletePost(r.Context(), id, user); err != nil {
		s.fail(w, r, err)
		return
	}
	s.redirectWithFlash(w, r, "/", "success", "Post deleted.")
}

func postFields(form *Form) domain.PostFields {
	return domain.PostFields{
		Title:    form.Get("title"),
		Subtitle: form.Get("subtitle"),
		Body:     form.Get("body"),
		ImgURL:   form.Get("img_url"),
	}
}
