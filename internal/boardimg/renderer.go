// Package boardimg renders a board position to a PNG snapshot served by the
// gateway's /rooms/{id}/board.png endpoint.
package boardimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	squareSize   = 64
	boardSquares = 8
	boardSize    = squareSize * boardSquares
	margin       = 28
)

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	backgroundColor = color.RGBA{38, 36, 33, 255}
	coordinateColor = color.RGBA{210, 205, 195, 255}
)

// Render draws the position described by fen and returns it PNG-encoded.
func Render(fen string) ([]byte, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}
	game := nchess.NewGame(opt)
	board := game.Position().Board()

	totalSize := boardSize + margin*2
	origin := image.Point{X: margin, Y: margin}

	img := image.NewRGBA(image.Rect(0, 0, totalSize, totalSize))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawSquares(img, squareSize, origin)
	if err := drawPieces(img, board, squareSize, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, squareSize, origin)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	ranks := []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files := []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}

	for row, rank := range ranks {
		for col, file := range files {
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			sq := nchess.NewSquare(file, rank)
			clr := squareColor(sq)
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *nchess.Board, squareSize int, origin image.Point) error {
	boardMap := board.SquareMap()
	ranks := []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files := []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}

	for row, rank := range ranks {
		for col, file := range files {
			sq := nchess.NewSquare(file, rank)
			piece := boardMap[sq]
			if piece == nchess.NoPiece {
				continue
			}
			img, err := renderPieceImage(piece, squareSize)
			if err != nil {
				return err
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(coordinateColor),
		Face: basicfont.Face7x13,
	}

	for i := 0; i < boardSquares; i++ {
		rankLabel := fmt.Sprintf("%d", 8-i)
		y := origin.Y + i*squareSize + squareSize/2 + 5
		drawer.Dot = fixed.P(origin.X-14, y)
		drawer.DrawString(rankLabel)

		fileLabel := string(rune('a' + i))
		x := origin.X + i*squareSize + squareSize/2 - 3
		drawer.Dot = fixed.P(x, origin.Y+boardSize+18)
		drawer.DrawString(fileLabel)
	}
}
