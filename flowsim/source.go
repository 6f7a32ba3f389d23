package flowsim

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"git.fiblab.net/sim/roadnet/cache"
	"git.fiblab.net/sim/roadnet/network"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 流量CSV中可接受的列名（小写）
var (
	dateColumns  = []string{"date", "dia", "day"}
	totalColumns = []string{"total_flow", "fluxo", "flow", "total"}
)

// Path locates the daily flow records: a CSV file or a mongo collection.
type Path struct {
	File string
	DB   string
	Coll string
}

// NewPath treats an existing file path as a file, anything else as
// {db}.{coll}. An empty string yields nil. A missing path that contains a
// directory separator or ends in a data file extension reports
// os.ErrNotExist.
func NewPath(filePathOrColl string) (*Path, error) {
	// 检查filePathOrColl是否作为文件存在
	if _, err := os.Stat(filePathOrColl); err == nil {
		return &Path{File: filePathOrColl}, nil
	}
	dbDotColl := strings.TrimSpace(filePathOrColl)
	if dbDotColl == "" {
		return nil, nil
	}
	if looksLikeFile(dbDotColl) {
		return nil, fmt.Errorf("daily flow file %s: %w", dbDotColl, os.ErrNotExist)
	}
	splitted := strings.Split(dbDotColl, ".")
	if len(splitted) != 2 || splitted[0] == "" || splitted[1] == "" {
		return nil, fmt.Errorf("not an existing file nor {db}.{coll}: %s", dbDotColl)
	}
	return &Path{DB: splitted[0], Coll: splitted[1]}, nil
}

// 文件扩展名，不可能是集合名
var fileExts = []string{".csv", ".tsv", ".txt", ".json"}

func looksLikeFile(s string) bool {
	if strings.ContainsAny(s, `/\`) {
		return true
	}
	return lo.Contains(fileExts, strings.ToLower(filepath.Ext(s)))
}

func (p *Path) String() string {
	if p.File != "" {
		return p.File
	}
	return p.DB + "." + p.Coll
}

// CacheKey identifies the source in the on-disk cache.
func (p *Path) CacheKey() string {
	if p.File != "" {
		// 文件使用绝对路径
		path, err := filepath.Abs(p.File)
		if err != nil {
			return p.File
		}
		return path
	}
	return "mongo:" + p.DB + "." + p.Coll
}

// ReadDailyFlows loads all daily flow records from the path. Files are read
// directly; collections are downloaded through the cache in cacheDir.
func ReadDailyFlows(ctx context.Context, mongoURI string, p *Path, cacheDir string) ([]DailyFlow, error) {
	if p == nil {
		return nil, errors.New("no daily flow source")
	}
	if p.File != "" {
		f, err := os.Open(p.File)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseDailyFlows(f, p.File)
	}
	return cache.LoadWithCache(cacheDir, p.CacheKey(), func() ([]DailyFlow, error) {
		return downloadDailyFlows(ctx, mongoURI, p)
	})
}

// ParseDailyFlows reads a CSV with a header naming a date column (date, dia
// or day) and a total column (total_flow, fluxo, flow or total), matched
// case-insensitively.
func ParseDailyFlows(r io.Reader, name string) ([]DailyFlow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, &network.ParseError{File: name, Line: 1, Err: err}
	}
	header = lo.Map(header, func(h string, _ int) string {
		return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
	})
	dateCol, totalCol := findColumn(header, dateColumns), findColumn(header, totalColumns)
	if dateCol < 0 {
		return nil, &network.ParseError{File: name, Line: 1, Err: fmt.Errorf("%w: date", ErrMissingColumn)}
	}
	if totalCol < 0 {
		return nil, &network.ParseError{File: name, Line: 1, Err: fmt.Errorf("%w: total_flow", ErrMissingColumn)}
	}
	res := make([]DailyFlow, 0)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &network.ParseError{File: name, Line: line, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(record) <= max(dateCol, totalCol) {
			return nil, &network.ParseError{File: name, Line: line, Err: fmt.Errorf("want at least %d fields, got %d", max(dateCol, totalCol)+1, len(record))}
		}
		total, err := parseFlow(record[totalCol])
		if err != nil {
			return nil, &network.ParseError{File: name, Line: line, Err: err}
		}
		res = append(res, DailyFlow{Date: strings.TrimSpace(record[dateCol]), Total: total})
	}
	return res, nil
}

// findColumn returns the index of the first candidate present in header, or -1.
func findColumn(header, candidates []string) int {
	for _, c := range candidates {
		if i := lo.IndexOf(header, c); i >= 0 {
			return i
		}
	}
	return -1
}

func parseFlow(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("%w: %d", ErrNegativeFlow, v)
		}
		return v, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad flow %q: %w", s, err)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNegativeFlow, v)
	}
	return int64(math.Round(v)), nil
}

func downloadDailyFlows(ctx context.Context, mongoURI string, p *Path) ([]DailyFlow, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(context.Background())
	cursor, err := client.Database(p.DB).Collection(p.Coll).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", p, err)
	}
	var res []DailyFlow
	if err := cursor.All(ctx, &res); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	log.Infof("downloaded %d daily flow records from %s", len(res), p)
	return res, nil
}
