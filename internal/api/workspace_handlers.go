package api

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"workspace-server/internal/workspace"

	"github.com/go-chi/chi/v5"
)

type CreateNodeRequest struct {
	Name     string  `json:"name" example:"main.py"`
	IsFolder bool    `json:"isFolder" example:"false"`
	ParentID *string `json:"parentId,omitempty" example:"V1StGXR8_Z5jdHi6B-myT"`
	Content  []byte  `json:"content,omitempty" swaggertype:"string" format:"base64" example:"cHJpbnQoMSk="`
	Locked   bool    `json:"locked,omitempty" example:"false"`
}

type RenameNodeRequest struct {
	NewName string `json:"newName" example:"renamed.py"`
}

type MoveNodeRequest struct {
	NewParentID string `json:"newParentId" example:"V1StGXR8_Z5jdHi6B-myT"`
}

type UpdateContentRequest struct {
	Content []byte `json:"content" swaggertype:"string" format:"base64" example:"cHJpbnQoMik="`
}

type UploadFileRequest struct {
	Path    string `json:"path" example:"docs/readme.md"`
	Content string `json:"content" format:"base64" example:"IyBSZWFkbWU="`
}

type UploadRequest struct {
	ParentID *string             `json:"parentId,omitempty" example:"V1StGXR8_Z5jdHi6B-myT"`
	Files    []UploadFileRequest `json:"files"`
}

type NodeResponse struct {
	Message string                 `json:"message" example:"Item created"`
	Item    *workspace.NodeSummary `json:"item"`
}

type ContentResponse struct {
	Message string                    `json:"message" example:"File content updated"`
	File    *workspace.ContentSummary `json:"file"`
}

type TreeResponse struct {
	Workspace *workspace.TreeNode `json:"workspace"`
}

type LookupResponse struct {
	ID string `json:"id" example:"V1StGXR8_Z5jdHi6B-myT"`
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func optionalBoolQuery(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %q parameter, must be true or false", key)
	}
	return &b, nil
}

// @Summary      Get workspace tree
// @Description  Returns the nested tree below the given folder, or the whole workspace when no id is given. Children are ordered folders first, then by name.
// @Tags         workspace
// @Produce      json
// @Security     BearerAuth
// @Param        id   query     string  false  "Folder to start from"
// @Success      200  {object}  TreeResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /workspace [get]
func (s *Server) GetTreeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	tree, err := s.workspace.Tree(r.Context(), claims.UserID, optionalQuery(r, "id"))
	recordOperation("tree", err)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TreeResponse{Workspace: tree})
}

// @Summary      Create a file or folder
// @Description  Creates a node under parentId, or under the workspace root when parentId is omitted. File content grows every folder above it.
// @Tags         workspace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      CreateNodeRequest  true  "New node"
// @Success      201      {object}  NodeResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /workspace [post]
func (s *Server) CreateNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	s.limitBody(w, r)

	var req CreateNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := s.workspace.Create(r.Context(), claims.UserID, workspace.CreateParams{
		Name:     req.Name,
		IsFolder: req.IsFolder,
		ParentID: req.ParentID,
		Content:  req.Content,
		Locked:   req.Locked,
	})
	recordOperation("create", err)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}

	message := "File created"
	if item.IsFolder {
		message = "Folder created"
	}
	writeJSON(w, http.StatusCreated, NodeResponse{Message: message, Item: item})
}

// @Summary      Delete a file or folder
// @Description  Deletes the node and its whole subtree. Every folder above it shrinks by the node's size.
// @Tags         workspace
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId  path      string  true  "Node ID"
// @Success      200     {object}  workspace.DeleteResult
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      500     {object}  ErrorResponse
// @Router       /workspace/{nodeId} [delete]
func (s *Server) DeleteNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	res, err := s.workspace.Delete(r.Context(), claims.UserID, chi.URLParam(r, "nodeId"))
	recordOperation("delete", err)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// @Summary      Rename a file or folder
// @Tags         workspace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId   path      string             true  "Node ID"
// @Param        request  body      RenameNodeRequest  true  "New name"
// @Success      200      {object}  NodeResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /workspace/{nodeId}/name [patch]
func (s *Server) RenameNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	s.limitBody(w, r)

	var req RenameNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := s.workspace.Rename(r.Context(), claims.UserID, chi.URLParam(r, "nodeId"), req.NewName)
	recordOperation("rename", err)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NodeResponse{Message: "Item renamed", Item: item})
}

// @Summary      Move a file or folder
// @Description  Reparents the node. Folders above both the old and the new location keep their size.
// @Tags         workspace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId   path      string           true  "Node ID"
// @Param        request  body      MoveNodeRequest  true  "Destination folder"
// @Success      200      {object}  NodeResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /workspace/{nodeId}/parent [patch]
func (s *Server) MoveNodeHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	s.limitBody(w, r)

	var req MoveNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := s.workspace.Move(r.Context(), claims.UserID, chi.URLParam(r, "nodeId"), req.NewParentID)
	recordOperation("move", err)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NodeResponse{Message: "Item moved", Item: item})
}

// @Summary      Replace file content
// @Tags         workspace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        nodeId   path      string                true  "File ID"
// @Param        request  body      UpdateContentRequest  true  "New content, base64"
// @Success      200      {object}  ContentResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      413      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /workspace/{nodeId}/content [patch]
func (s *Server) UpdateContentHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	s.limitBody(w, r)

	var req UpdateContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	file, err := s.workspace.UpdateContent(r.Context(), claims.UserID, chi.URLParam(r, "nodeId"), req.Content)
	recordOperation("update_content", err)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ContentResponse{Message: "File content updated", File: file})
}

// @Summary      Upload a batch of files
// @Description  Creates every file at its relative path below parentId (or the root), creating the folders the paths imply. Existing names are skipped, never overwritten.
// @Tags         workspace
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      UploadRequest  true  "Files with base64 content"
// @Success      201      {object}  workspace.UploadResult
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      413      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /workspace/upload [post]
func (s *Server) UploadHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())
	s.limitBody(w, r)

	var req UploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entries := make([]workspace.UploadEntry, len(req.Files))
	for i, f := range req.Files {
		content, err := base64.StdEncoding.DecodeString(f.Content)
		entries[i] = workspace.UploadEntry{Path: f.Path, Content: content, Err: err}
	}

	res, err := s.workspace.Upload(r.Context(), claims.UserID, req.ParentID, entries)
	recordOperation("upload", err)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// @Summary      Download a file or folder
// @Description  A file is returned as-is; a folder, or the whole workspace when no id is given, as a zip archive.
// @Tags         workspace
// @Produce      application/octet-stream
// @Produce      application/zip
// @Security     BearerAuth
// @Param        id   query     string  false  "Node ID"
// @Success      200  {file}    binary
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /workspace/download [get]
func (s *Server) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	d, err := s.workspace.Download(r.Context(), claims.UserID, optionalQuery(r, "id"))
	recordOperation("download", err)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(d.Data)
}

// @Summary      Find a node id
// @Description  Resolves the given attributes to exactly one node of the workspace.
// @Tags         workspace
// @Produce      json
// @Security     BearerAuth
// @Param        name       query     string  false  "Exact name"
// @Param        isFolder   query     bool    false  "Folder or file"
// @Param        canDelete  query     bool    false  "Deletable or protected"
// @Success      200        {object}  LookupResponse
// @Failure      400        {object}  ErrorResponse
// @Failure      401        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse
// @Failure      500        {object}  ErrorResponse
// @Router       /workspace/lookup [get]
func (s *Server) LookupHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	isFolder, err := optionalBoolQuery(r, "isFolder")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	canDelete, err := optionalBoolQuery(r, "canDelete")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.workspace.Lookup(r.Context(), claims.UserID, workspace.LookupCriteria{
		Name:      r.URL.Query().Get("name"),
		IsFolder:  isFolder,
		CanDelete: canDelete,
	})
	recordOperation("lookup", err)
	if err != nil {
		writeWorkspaceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LookupResponse{ID: id})
}
