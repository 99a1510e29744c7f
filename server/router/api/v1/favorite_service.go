package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/confagenda/server/service/agenda"
)

type FavoriteChangeResponse struct {
	Favorite *FavoriteResponse  `json:"favorite,omitempty"`
	Sync     *agenda.SyncResult `json:"sync"`
}

// ListFavorites lists the caller's favorites.
// GET /api/v1/favorites
func (s *APIV1Service) ListFavorites(c echo.Context) error {
	favorites, err := s.FavoriteService.List(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	list := make([]*FavoriteResponse, 0, len(favorites))
	for _, favorite := range favorites {
		list = append(list, convertFavorite(favorite))
	}
	return c.JSON(http.StatusOK, list)
}

// AddFavorite favorites a session and mirrors it into the active agenda.
// PUT /api/v1/favorites/:sessionId
func (s *APIV1Service) AddFavorite(c echo.Context) error {
	result, err := s.FavoriteService.Add(c.Request().Context(), userID(c), c.Param("sessionId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, &FavoriteChangeResponse{Favorite: convertFavorite(result.Favorite), Sync: result.Sync})
}

// RemoveFavorite unfavorites a session and removes it from the active agenda.
// DELETE /api/v1/favorites/:sessionId
func (s *APIV1Service) RemoveFavorite(c echo.Context) error {
	result, err := s.FavoriteService.Remove(c.Request().Context(), userID(c), c.Param("sessionId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, &FavoriteChangeResponse{Sync: result.Sync})
}
