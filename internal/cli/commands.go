package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	"github.com/Adithya-Monish-Kumar-K/content-store/internal/store"
)

const topLikedCount = 3

func (m *Menu) userCommands() []command {
	return []command{
		{"Create post", "create_post", m.createPost},
		{"View all posts", "view_posts", m.viewPosts},
		{"View my posts", "view_own_posts", m.viewOwnPosts},
		{"Like post", "like_post", m.likePost},
		{"Unlike post", "unlike_post", m.unlikePost},
		{"Comment on post", "comment_post", m.commentPost},
		{"Delete post", "delete_post", m.deletePost},
		{"Edit post", "edit_post", m.editPost},
		{"Search posts by username", "search_username", m.searchByUsername},
		{"Search post by ID (BST)", "search_id_bst", m.searchByID},
		{"Search post by ID (binary search)", "search_id_sorted", m.searchByIDSorted},
		{"Top 3 liked posts", "top_liked", m.topLiked},
		{"Posts sorted by likes", "sorted_by_likes", m.sortedByLikes},
		{"Undo delete", "undo", m.undo},
		{"Show notifications", "notifications", m.notifications},
		{"Delete my top-liked post", "delete_top_liked", m.deleteTopLiked},
		{"Posts by likes, ascending (BST)", "ascending_by_likes", m.ascendingByLikes},
		{"Find posts by like count (BST)", "posts_with_likes", m.postsWithLikes},
		{"Unlike my post by like count (BST)", "unlike_by_likes", m.unlikeByLikes},
		{"Delete my post by like count (BST)", "delete_by_likes", m.deleteByLikes},
		{"Log out", "logout", func(context.Context) error { return errLogout }},
	}
}

func (m *Menu) actor() int {
	return m.session.UserID
}

func (m *Menu) createPost(ctx context.Context) error {
	media, err := m.line("Media filename (png, jpg, etc): ")
	if err != nil {
		return err
	}
	caption, err := m.line("Caption: ")
	if err != nil {
		return err
	}
	id, err := m.store.CreatePost(ctx, m.actor(), caption, media)
	return m.applied(err, "Post %d created.", id)
}

func (m *Menu) viewPosts(context.Context) error {
	views := m.store.ListPosts()
	if len(views) == 0 {
		fmt.Fprintln(m.out, "No posts.")
		return nil
	}
	for _, v := range views {
		fmt.Fprintf(m.out, "[%d] %s (%s) by %s Likes: %d\n",
			v.Post.ID, v.Post.Caption, v.Post.MediaRef, m.username(v.Post.OwnerID), v.Post.LikeCount)
		for _, c := range v.Comments {
			fmt.Fprintf(m.out, "    - %s: %s\n", m.username(c.AuthorID), c.Text)
		}
	}
	return nil
}

func (m *Menu) viewOwnPosts(context.Context) error {
	posts := m.store.ListPostsByOwner(m.actor())
	if len(posts) == 0 {
		fmt.Fprintln(m.out, "You have not created any posts yet.")
		return nil
	}
	writePosts(m.out, posts)
	return nil
}

func (m *Menu) likePost(ctx context.Context) error {
	id, err := m.number("Post ID to like: ")
	if err != nil {
		return err
	}
	p, err := m.store.LikePost(ctx, id, m.actor())
	return m.applied(err, "Post %d liked. Likes: %d", id, p.LikeCount)
}

func (m *Menu) unlikePost(ctx context.Context) error {
	id, err := m.number("Post ID to unlike: ")
	if err != nil {
		return err
	}
	p, err := m.store.UnlikePost(ctx, id, m.actor())
	return m.applied(err, "Post %d unliked. Likes: %d", id, p.LikeCount)
}

func (m *Menu) commentPost(ctx context.Context) error {
	id, err := m.number("Post ID to comment on: ")
	if err != nil {
		return err
	}
	text, err := m.line("Comment: ")
	if err != nil {
		return err
	}
	_, err = m.store.AddComment(ctx, id, m.actor(), text)
	return m.applied(err, "Comment added.")
}

func (m *Menu) deletePost(ctx context.Context) error {
	id, err := m.number("Post ID to delete: ")
	if err != nil {
		return err
	}
	_, err = m.store.DeletePost(ctx, id, m.actor())
	return m.applied(err, "Post %d deleted. Choose undo to restore it.", id)
}

func (m *Menu) editPost(ctx context.Context) error {
	id, err := m.number("Post ID to edit: ")
	if err != nil {
		return err
	}
	if _, err := m.store.FindPost(id); err != nil {
		return err
	}
	media, err := m.line("New media filename (png, jpg, etc): ")
	if err != nil {
		return err
	}
	caption, err := m.line("New caption: ")
	if err != nil {
		return err
	}
	return m.applied(m.store.EditPost(ctx, id, m.actor(), caption, media), "Post %d updated.", id)
}

func (m *Menu) searchByUsername(context.Context) error {
	name, err := m.line("Username: ")
	if err != nil {
		return err
	}
	posts, err := m.store.PostsByUsername(name)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Fprintln(m.out, "No posts from this user.")
		return nil
	}
	writePosts(m.out, posts)
	return nil
}

func (m *Menu) searchByID(context.Context) error {
	id, err := m.number("Post ID: ")
	if err != nil {
		return err
	}
	p, err := m.store.SearchByID(id)
	if err != nil {
		return err
	}
	fmt.Fprint(m.out, "Found: ")
	writePosts(m.out, []model.Post{p})
	return nil
}

func (m *Menu) searchByIDSorted(context.Context) error {
	id, err := m.number("Post ID: ")
	if err != nil {
		return err
	}
	p, err := m.store.SearchByIDSorted(id)
	if err != nil {
		return err
	}
	fmt.Fprint(m.out, "Found: ")
	writePosts(m.out, []model.Post{p})
	return nil
}

func (m *Menu) topLiked(ctx context.Context) error {
	top, err := m.store.TopLiked(ctx, topLikedCount)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		fmt.Fprintln(m.out, "No posts.")
		return nil
	}
	for i, p := range top {
		fmt.Fprintf(m.out, "%d. [%d] %s Likes: %d\n", i+1, p.ID, p.Caption, p.LikeCount)
	}
	return nil
}

func (m *Menu) sortedByLikes(context.Context) error {
	posts := m.store.PostsByLikes()
	if len(posts) == 0 {
		fmt.Fprintln(m.out, "No posts.")
		return nil
	}
	fmt.Fprintln(m.out, "Posts sorted by likes (descending):")
	writePosts(m.out, posts)
	return nil
}

func (m *Menu) undo(ctx context.Context) error {
	p, err := m.store.Undo(ctx, m.actor())
	return m.applied(err, "Post %d restored.", p.ID)
}

func (m *Menu) notifications(context.Context) error {
	notes := m.store.Notifications()
	if len(notes) == 0 {
		fmt.Fprintln(m.out, "No notifications.")
		return nil
	}
	for i, n := range notes {
		fmt.Fprintf(m.out, "%d. %s\n", i+1, n)
	}
	return nil
}

func (m *Menu) deleteTopLiked(ctx context.Context) error {
	p, err := m.store.DeleteTopLikedOwned(ctx, m.actor())
	return m.applied(err, "Deleted your top-liked post %d (%d likes).", p.ID, p.LikeCount)
}

func (m *Menu) ascendingByLikes(context.Context) error {
	posts := m.store.PostsAscendingByLikes()
	if len(posts) == 0 {
		fmt.Fprintln(m.out, "No posts.")
		return nil
	}
	fmt.Fprintln(m.out, "Posts by likes (ascending):")
	writePosts(m.out, posts)
	return nil
}

func (m *Menu) postsWithLikes(context.Context) error {
	likes, err := m.number("Like count: ")
	if err != nil {
		return err
	}
	posts, err := m.store.PostsWithLikes(likes)
	if err != nil {
		return err
	}
	writePosts(m.out, posts)
	return nil
}

func (m *Menu) unlikeByLikes(ctx context.Context) error {
	likes, err := m.number("Like count of the post to unlike: ")
	if err != nil {
		return err
	}
	p, err := m.store.UnlikeByLikes(ctx, m.actor(), likes)
	return m.applied(err, "Unliked post %d. Likes: %d", p.ID, p.LikeCount)
}

func (m *Menu) deleteByLikes(ctx context.Context) error {
	likes, err := m.number("Like count of the post to delete: ")
	if err != nil {
		return err
	}
	p, err := m.store.DeleteByLikes(ctx, m.actor(), likes)
	return m.applied(err, "Deleted post %d with %d likes.", p.ID, p.LikeCount)
}

func (m *Menu) username(id int) string {
	u, err := m.store.UserByID(id)
	if err != nil {
		return fmt.Sprintf("user#%d", id)
	}
	return u.Username
}

func writePosts(w io.Writer, posts []model.Post) {
	for _, p := range posts {
		fmt.Fprintf(w, "[%d] %s (%s) Likes: %d\n", p.ID, p.Caption, p.MediaRef, p.LikeCount)
	}
}

// WriteStats prints the store's counters one per line.
func WriteStats(w io.Writer, st store.Stats) {
	fmt.Fprintf(w, "users:         %d\n", st.Users)
	fmt.Fprintf(w, "posts:         %d\n", st.Posts)
	fmt.Fprintf(w, "comments:      %d\n", st.Comments)
	fmt.Fprintf(w, "likes:         %d\n", st.Likes)
	fmt.Fprintf(w, "undo depth:    %d\n", st.UndoDepth)
	fmt.Fprintf(w, "last post id:  %d\n", st.LastPostID)
}
