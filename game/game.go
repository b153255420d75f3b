// game/game.go
package game

import "fmt"

// Mark 表示棋盘上的落子标记
type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X" // 先手（攻方）
	MarkO     Mark = "O" // 后手（守方）
)

// Opponent 返回对方的标记
func (m Mark) Opponent() Mark {
	if m == MarkX {
		return MarkO
	}
	return MarkX
}

// Coord 是无限棋盘上的一个格子坐标，允许负数
type Coord struct {
	X int
	Y int
}

// Key 返回序列化时使用的 "x,y" 形式的键
func (c Coord) Key() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// Move 最近一次落子
type Move struct {
	Coord Coord
	Mark  Mark
}

// Board 是稀疏棋盘：只记录已占用的格子，棋盘本身无边界
type Board map[Coord]Mark

// WinningCount 连成一线获胜所需的棋子数
const WinningCount = 5

// 四个扫描轴：横、竖、两条对角线
var axes = [4][2]int{
	{1, 0},  // 横向
	{0, 1},  // 纵向
	{1, 1},  // 对角线 \
	{1, -1}, // 对角线 /
}

// DetectWin reports whether the last move completed a run of at least
// WinningCount stones on any axis through it. Overlines (six or more in a
// row) count as a win. Returns the winning mark, or MarkEmpty.
func DetectWin(board Board, last Move) Mark {
	if last.Mark == MarkEmpty {
		return MarkEmpty
	}

	for _, axis := range axes {
		dx, dy := axis[0], axis[1]
		count := 1 // 包含刚落下的这颗棋子

		// 正方向
		for i := 1; i < WinningCount; i++ {
			c := Coord{last.Coord.X + dx*i, last.Coord.Y + dy*i}
			if board[c] != last.Mark {
				break
			}
			count++
		}

		// 负方向
		for i := 1; i < WinningCount; i++ {
			c := Coord{last.Coord.X - dx*i, last.Coord.Y - dy*i}
			if board[c] != last.Mark {
				break
			}
			count++
		}

		if count >= WinningCount {
			return last.Mark
		}
	}

	return MarkEmpty
}
