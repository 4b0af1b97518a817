package main

import (
	"net/http"
)

type comment struct {
	Id        string `json:"id"`
	PostId    string `json:"postId"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	Avatar    string `json:"avatar"`
	Persisted bool   `json:"persisted"`
}

type commentList struct {
	Comments []comment `json:"comments"`
}

func (s *APISuite) TestCreatePost() {
	// when:
	var p post
	status := s.do("POST", "/api/v1/posts", `{"content": "1234", "author": "bob"}`, &p)

	// then:
	s.Require().Equal(http.StatusCreated, status)
	s.Require().Equal("1234", p.Content)
	s.Require().Equal("bob", p.Author)
	if s.persisted() {
		s.Require().Empty(p.Warning)
	} else {
		s.Require().NotEmpty(p.Warning)
	}
}

func (s *APISuite) TestCreatePostWithoutAuthor() {
	// when:
	status := s.do("POST", "/api/v1/posts", `{"content": "1234"}`, nil)

	// then:
	s.Require().Equal(http.StatusBadRequest, status)
}

func (s *APISuite) TestPatchNegativeCounter() {
	var p post
	s.Require().Equal(http.StatusCreated, s.do("POST", "/api/v1/posts", `{"content": "c", "author": "a"}`, &p))

	// when:
	status := s.do("PATCH", "/api/v1/posts/"+p.Id, `{"shares": -1}`, nil)

	// then:
	s.Require().Equal(http.StatusBadRequest, status)
}

func (s *APISuite) TestComments() {
	var p post
	s.Require().Equal(http.StatusCreated, s.do("POST", "/api/v1/posts", `{"content": "c", "author": "a"}`, &p))

	// when:
	var first, second comment
	s.Require().Equal(http.StatusCreated, s.do("POST", "/api/v1/posts/"+p.Id+"/comments", `{"content": "first", "author": "carol"}`, &first))
	s.Require().Equal(http.StatusCreated, s.do("POST", "/api/v1/comments", `{"postId": "`+p.Id+`", "content": "second", "author": "dave", "avatar": "d.png"}`, &second))

	// then:
	s.Require().Equal("default-avatar.png", first.Avatar)
	s.Require().Equal("d.png", second.Avatar)
	s.Require().Equal(s.persisted(), first.Persisted)

	var list commentList
	s.Require().Equal(http.StatusOK, s.do("GET", "/api/v1/comments?postId="+p.Id, "", &list))
	s.Require().Len(list.Comments, 2)
	s.Require().Equal(first.Id, list.Comments[0].Id)
	s.Require().Equal(second.Id, list.Comments[1].Id)

	var byPath commentList
	s.Require().Equal(http.StatusOK, s.do("GET", "/api/v1/posts/"+p.Id+"/comments", "", &byPath))
	s.Require().Equal(list, byPath)

	// deleting the post drops its comments
	s.Require().Equal(http.StatusOK, s.do("DELETE", "/api/v1/posts/"+p.Id, "", nil))
	list = commentList{}
	s.Require().Equal(http.StatusOK, s.do("GET", "/api/v1/comments?postId="+p.Id, "", &list))
	s.Require().Empty(list.Comments)
}
