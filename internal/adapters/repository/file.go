package repository

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/okian/cragrank/internal/domain/model"
)

// Package-level validator for competition definitions.
var validate = validator.New()

type fileDef struct {
	Competitions []competitionDef `yaml:"competitions" validate:"required,min=1,dive"`
}

type competitionDef struct {
	ID     int64      `yaml:"id" validate:"required,gt=0"`
	Name   string     `yaml:"name" validate:"required"`
	Rounds []roundDef `yaml:"rounds" validate:"required,min=1,dive"`
}

type roundDef struct {
	ID         int64      `yaml:"id" validate:"required,gt=0"`
	Index      int        `yaml:"index" validate:"gte=0"`
	Name       string     `yaml:"name"`
	Category   string     `yaml:"category" validate:"required"`
	Sex        string     `yaml:"sex" validate:"required,oneof=MALE FEMALE MIXED"`
	Discipline string     `yaml:"discipline" validate:"required,oneof=UNLIMITED_CONTEST LIMITED_CONTEST CIRCUIT"`
	Type       string     `yaml:"type" validate:"required,oneof=QUALIFIER SEMI_FINAL FINAL"`
	MaxTries   int        `yaml:"maxTries" validate:"gte=0"`
	Groups     []groupDef `yaml:"groups" validate:"required,min=1,dive"`
}

type groupDef struct {
	ID       int64        `yaml:"id" validate:"required,gt=0"`
	Name     string       `yaml:"name"`
	Boulders []boulderDef `yaml:"boulders" validate:"required,min=1,dive"`
	Climbers []climberDef `yaml:"climbers" validate:"dive"`
	Results  []resultDef  `yaml:"results" validate:"dive"`
}

type boulderDef struct {
	ID    int64 `yaml:"id" validate:"required,gt=0"`
	Index int   `yaml:"index" validate:"gte=0"`
}

type climberDef struct {
	ID        int64  `yaml:"id" validate:"required,gt=0"`
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Club      string `yaml:"club"`
}

type resultDef struct {
	ClimberID   int64 `yaml:"climberId" validate:"required,gt=0"`
	BoulderID   int64 `yaml:"boulderId" validate:"required,gt=0"`
	Top         bool  `yaml:"top"`
	TopInTries  int   `yaml:"topInTries" validate:"gte=0"`
	Zone        bool  `yaml:"zone"`
	ZoneInTries int   `yaml:"zoneInTries" validate:"gte=0"`
	Tries       int   `yaml:"tries" validate:"gte=0"`
}

// LoadFile reads a YAML competition definition.
func LoadFile(path string) ([]*model.Competition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read competition file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML competition definition.
func Parse(data []byte) ([]*model.Competition, error) {
	var def fileDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidDefinition, err)
	}
	if err := validate.Struct(def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}

	out := make([]*model.Competition, 0, len(def.Competitions))
	for _, cd := range def.Competitions {
		c, err := cd.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (cd competitionDef) toModel() (*model.Competition, error) {
	c := &model.Competition{ID: model.CompetitionID(cd.ID), Name: cd.Name}
	for _, rd := range cd.Rounds {
		r := &model.Round{
			ID:            model.RoundID(rd.ID),
			CompetitionID: c.ID,
			Index:         rd.Index,
			Name:          rd.Name,
			Category:      model.Category{Name: rd.Category, Sex: model.Sex(rd.Sex)},
			Discipline:    model.Discipline(rd.Discipline),
			Type:          model.RoundType(rd.Type),
			MaxTries:      rd.MaxTries,
		}
		for _, gd := range rd.Groups {
			g, err := gd.toModel()
			if err != nil {
				return nil, fmt.Errorf("round %d: %w", rd.ID, err)
			}
			r.Groups = append(r.Groups, g)
		}
		c.Rounds = append(c.Rounds, r)
	}
	return c, nil
}

func (gd groupDef) toModel() (*model.Group, error) {
	g := &model.Group{ID: model.GroupID(gd.ID), Name: gd.Name}

	indices := make(map[int]struct{}, len(gd.Boulders))
	for _, bd := range gd.Boulders {
		if _, dup := indices[bd.Index]; dup {
			return nil, fmt.Errorf("group %d: boulder index %d repeated: %w", gd.ID, bd.Index, ErrInvalidDefinition)
		}
		indices[bd.Index] = struct{}{}
		g.Boulders = append(g.Boulders, model.Boulder{ID: model.BoulderID(bd.ID), Index: bd.Index})
	}
	for _, cd := range gd.Climbers {
		g.Climbers = append(g.Climbers, model.Climber{
			ID:        model.ClimberID(cd.ID),
			FirstName: cd.FirstName,
			LastName:  cd.LastName,
			Club:      cd.Club,
		})
	}
	for _, rd := range gd.Results {
		res := model.Result{
			ClimberID:   model.ClimberID(rd.ClimberID),
			BoulderID:   model.BoulderID(rd.BoulderID),
			Top:         rd.Top,
			TopInTries:  rd.TopInTries,
			Zone:        rd.Zone,
			ZoneInTries: rd.ZoneInTries,
			Tries:       rd.Tries,
		}
		if !g.HasClimber(res.ClimberID) {
			return nil, fmt.Errorf("%w: group %d: result for climber %d: %w", ErrInvalidDefinition, gd.ID, rd.ClimberID, ErrClimberNotInGroup)
		}
		if !g.HasBoulder(res.BoulderID) {
			return nil, fmt.Errorf("%w: group %d: result on boulder %d: %w", ErrInvalidDefinition, gd.ID, rd.BoulderID, ErrBoulderNotInGroup)
		}
		if g.Result(res.ClimberID, res.BoulderID) != nil {
			return nil, fmt.Errorf("group %d: climber %d on boulder %d repeated: %w", gd.ID, rd.ClimberID, rd.BoulderID, ErrInvalidDefinition)
		}
		g.Results = append(g.Results, res)
	}
	return g, nil
}

// Encode renders competitions in the definition format read by Parse.
func Encode(comps []*model.Competition) ([]byte, error) {
	def := fileDef{Competitions: make([]competitionDef, 0, len(comps))}
	for _, c := range comps {
		def.Competitions = append(def.Competitions, competitionFromModel(c))
	}
	data, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("encode competitions: %w", err)
	}
	return data, nil
}

func competitionFromModel(c *model.Competition) competitionDef {
	cd := competitionDef{ID: int64(c.ID), Name: c.Name}
	for _, r := range c.Rounds {
		rd := roundDef{
			ID:         int64(r.ID),
			Index:      r.Index,
			Name:       r.Name,
			Category:   r.Category.Name,
			Sex:        string(r.Category.Sex),
			Discipline: string(r.Discipline),
			Type:       string(r.Type),
			MaxTries:   r.MaxTries,
		}
		for _, g := range r.Groups {
			gd := groupDef{ID: int64(g.ID), Name: g.Name}
			for _, b := range g.Boulders {
				gd.Boulders = append(gd.Boulders, boulderDef{ID: int64(b.ID), Index: b.Index})
			}
			for _, cl := range g.Climbers {
				gd.Climbers = append(gd.Climbers, climberDef{
					ID:        int64(cl.ID),
					FirstName: cl.FirstName,
					LastName:  cl.LastName,
					Club:      cl.Club,
				})
			}
			for _, res := range g.Results {
				gd.Results = append(gd.Results, resultDef{
					ClimberID:   int64(res.ClimberID),
					BoulderID:   int64(res.BoulderID),
					Top:         res.Top,
					TopInTries:  res.TopInTries,
					Zone:        res.Zone,
					ZoneInTries: res.ZoneInTries,
					Tries:       res.Tries,
				})
			}
			rd.Groups = append(rd.Groups, gd)
		}
		cd.Rounds = append(cd.Rounds, rd)
	}
	return cd
}
